package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/arloliu/avrofile"
	"github.com/arloliu/avrofile/schema"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <schema.json|file.avro>",
	Short: "Print the CRC-64-AVRO fingerprint of a schema, hex-encoded.",
	Long: `Print the CRC-64-AVRO fingerprint of a schema over its canonical form.

The argument is either a JSON schema document or an Avro container file; a
container file contributes its embedded writer schema.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		s, err := loadSchema(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%016x\n", schema.Fingerprint(s))

		return nil
	},
}

// loadSchema reads the argument as a container file first, falling back to a
// raw schema document.
func loadSchema(path string) (schema.Schema, error) {
	if r, err := avrofile.OpenFile(path); err == nil {
		defer r.Close()
		return r.Schema(), nil
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	return schema.ParseBytes(text)
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)
}
