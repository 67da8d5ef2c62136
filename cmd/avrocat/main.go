package main

import "github.com/arloliu/avrofile/cmd/avrocat/cmd"

func main() {
	cmd.Execute()
}
