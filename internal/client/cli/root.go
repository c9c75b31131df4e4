// Package cli implements gatectl, the operator and submitter command line
// for ingestgate.
package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding flags, for
// example GATECTL_SERVER.
const EnvPrefix = "GATECTL"

// NewRootCmd builds the command tree writing to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "gatectl",
		Short:         "Provision and use an ingestgate server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `gatectl provisions method mappings and credentials into the ingestgate
registry and submits files to a running server.

Examples:
  gatectl provision -f registry.yaml --dsn postgres://...
  gatectl upload -u alice -m sales report.csv
  gatectl checksum report.csv
  gatectl health --grpc 127.0.0.1:50051`,
	}
	root.SetOut(out)
	root.SetErr(out)

	root.AddCommand(newProvisionCmd(v), newUploadCmd(v), newChecksumCmd(), newHealthCmd(v))
	return root
}

// bindFlags lets GATECTL_* variables fill flags the user did not set.
func bindFlags(cmd *cobra.Command, v *viper.Viper, names ...string) error {
	for _, n := range names {
		f := cmd.Flags().Lookup(n)
		if err := v.BindPFlag(n, f); err != nil {
			return err
		}
		if !f.Changed && v.IsSet(n) {
			if err := f.Value.Set(v.GetString(n)); err != nil {
				return err
			}
		}
	}
	return nil
}
