package cli

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/ingestgate/internal/server/ingest"
	"github.com/spf13/cobra"
)

func newChecksumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checksum FILE",
		Short: "Print the MD5 the server will compute for FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := fileChecksum(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sum)
			return nil
		},
	}
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return ingest.Checksum(f)
}
