package cli

import (
	"fmt"

	"github.com/dmitrijs2005/ingestgate/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newHealthCmd(v *viper.Viper) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query the gRPC health service",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd, v, "grpc")
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := newClientService("", addr)
			defer svc.Close()

			st, err := svc.Health(logging.WithRequestID(cmd.Context(), ""))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st)
			if st != "SERVING" {
				return fmt.Errorf("server is %s", st)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "grpc", "127.0.0.1:50051", "ingestgate gRPC address")
	return cmd
}
