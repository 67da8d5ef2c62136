package cmd

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/arloliu/avrofile"
)

var metaCmd = &cobra.Command{
	Use:   "meta <file>",
	Short: "Print a container file's header metadata.",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		r, err := avrofile.OpenFile(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		meta := r.Metadata()

		keys := make([]string, 0, len(meta))
		for k := range meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			value := meta[k]
			if utf8.Valid(value) {
				fmt.Printf("%s\t%s\n", k, value)
			} else {
				fmt.Printf("%s\t%x\n", k, value)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(metaCmd)
}
