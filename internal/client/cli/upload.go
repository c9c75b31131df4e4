package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dmitrijs2005/ingestgate/internal/client/service"
	"github.com/dmitrijs2005/ingestgate/internal/cryptox"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newClientService is a test seam.
var newClientService = func(httpURL, grpcAddr string) service.Service {
	return service.NewGatewayClientService(httpURL, grpcAddr, &http.Client{Timeout: 10 * time.Minute})
}

type uploadOptions struct {
	server   string
	username string
	method   string
	filename string
	secret   string
	md5      string
}

func newUploadCmd(v *viper.Viper) *cobra.Command {
	o := &uploadOptions{}
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Submit FILE through a method",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd, v, "server", "username", "secret")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, o, args[0])
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.server, "server", "http://127.0.0.1:8080", "ingestgate HTTP address")
	f.StringVarP(&o.username, "username", "u", "", "submitter username")
	f.StringVarP(&o.method, "method", "m", "", "method to upload through")
	f.StringVarP(&o.filename, "filename", "n", "", "target file name, defaults to the local name")
	f.StringVarP(&o.secret, "secret", "s", "", "shared secret, prompted when empty")
	f.StringVar(&o.md5, "md5", "", "declared checksum, computed when empty")
	_ = cmd.MarkFlagRequired("method")
	return cmd
}

func runUpload(cmd *cobra.Command, o *uploadOptions, path string) error {
	out := cmd.OutOrStdout()
	if o.username == "" {
		return fmt.Errorf("username is required (--username or %s_USERNAME)", EnvPrefix)
	}

	secret := []byte(o.secret)
	if len(secret) == 0 {
		s, err := GetSecret(out)
		if err != nil {
			return fmt.Errorf("reading secret: %w", err)
		}
		secret = s
	}
	defer cryptox.WipeByteArray(secret)

	sum := o.md5
	if sum == "" {
		var err error
		if sum, err = fileChecksum(path); err != nil {
			return err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	svc := newClientService(o.server, "")
	defer svc.Close()

	res, err := svc.Upload(cmd.Context(), service.Upload{
		Username:  o.username,
		Secret:    string(secret),
		Method:    o.method,
		Filename:  o.filename,
		LocalName: filepath.Base(path),
		Checksum:  sum,
		Body:      f,
	})
	if err != nil {
		return err
	}

	if res.Accepted() {
		fmt.Fprintf(out, "accepted (%d) md5=%s\n", res.Status, res.MD5)
		return nil
	}

	fmt.Fprint(out, renderErrors(res))
	return fmt.Errorf("upload rejected (%d)", res.Status)
}

func renderErrors(res *service.Result) string {
	fields := make([]string, 0, len(res.Error))
	for k := range res.Error {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	data := pterm.TableData{{"field", "detail"}}
	for _, k := range fields {
		b, _ := json.Marshal(res.Error[k])
		data = append(data, []string{k, string(b)})
	}
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Sprintf("%v\n", res.Error)
	}
	return fmt.Sprintf("md5=%s\n%s\n", res.MD5, s)
}
