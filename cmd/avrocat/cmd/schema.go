package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/avrofile"
	"github.com/arloliu/avrofile/schema"
)

var canonicalForm bool

var schemaCmd = &cobra.Command{
	Use:   "schema <file>",
	Short: "Print the writer schema embedded in a container file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		r, err := avrofile.OpenFile(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		text := schema.Canonical(r.Schema())
		if canonicalForm {
			fmt.Println(text)
			return nil
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, []byte(text), "", "  "); err != nil {
			return err
		}

		fmt.Println(pretty.String())

		return nil
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&canonicalForm, "canonical", false, "Print the single-line canonical form.")
	rootCmd.AddCommand(schemaCmd)
}
