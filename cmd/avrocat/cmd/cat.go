package cmd

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/arloliu/avrofile"
)

var catCmd = &cobra.Command{
	Use:   "cat <file>",
	Short: "Stream a container file's records to stdout as JSON lines.",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		r, err := avrofile.OpenFile(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		logrus.WithFields(logrus.Fields{
			"file":  args[0],
			"codec": r.Codec(),
		}).Debug("opened container file")

		out := bufio.NewWriter(os.Stdout)
		defer out.Flush()

		enc := json.NewEncoder(out)

		count := 0
		for r.HasNext() {
			v, err := r.Read()
			if err != nil {
				return errors.Wrapf(err, "record %d", count)
			}

			if err := enc.Encode(v.Interface()); err != nil {
				return err
			}

			count++
		}

		if err := r.Err(); err != nil {
			return errors.Wrapf(err, "after %d records", count)
		}

		logrus.WithField("records", count).Debug("done")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
