package config

import (
	"flag"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dmitrijs2005/ingestgate/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g. ":8080")
//	-g string          gRPC health bind address (e.g. ":50051")
//	-d string          PostgreSQL DSN
//	-registry string   registry backend: postgres | file
//	-registry-file     provisioning YAML served by the file registry
//	-storage string    storage backend: webhdfs | s3 | minio | local
//	-hdfs-url string   WebHDFS namenode base URL
//	-hdfs-user string  user.name passed to WebHDFS
//	-local-root        root directory of the local backend
//	-ext string        comma separated accepted suffixes
//	-sample-rows int   rows read by the tabular sampler
//	-log string        log backend: slog | zap
//	-rate float        global upload requests per second, 0 disables
//
// Arguments are first filtered with flagx.FilterArgs so the config file
// flags and anything unknown do not break parsing.
func parseFlags(config *Config, osArgs []string) error {
	names := []string{"a", "g", "d", "registry", "registry-file", "storage", "hdfs-url", "hdfs-user",
		"local-root", "ext", "sample-rows", "log", "rate"}
	allowed := make([]string, 0, len(names)*2)
	for _, n := range names {
		allowed = append(allowed, "-"+n, "--"+n)
	}
	args := flagx.FilterArgs(osArgs, allowed)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RegistryBackend, "registry", config.RegistryBackend, "registry backend")
	fs.StringVar(&config.RegistryFile, "registry-file", config.RegistryFile, "registry YAML file")
	fs.StringVar(&config.StorageBackend, "storage", config.StorageBackend, "storage backend")
	fs.StringVar(&config.HDFSURL, "hdfs-url", config.HDFSURL, "WebHDFS base URL")
	fs.StringVar(&config.HDFSUser, "hdfs-user", config.HDFSUser, "WebHDFS user")
	fs.StringVar(&config.LocalRoot, "local-root", config.LocalRoot, "local storage root")
	ext := fs.String("ext", strings.Join(config.AllowedExtensions, ","), "accepted suffixes")
	fs.IntVar(&config.SampleRows, "sample-rows", config.SampleRows, "sampled rows")
	fs.StringVar(&config.LogBackend, "log", config.LogBackend, "log backend")
	fs.Float64Var(&config.RateLimit, "rate", config.RateLimit, "upload rate limit")

	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "parse flags")
	}

	config.AllowedExtensions = splitList(*ext)
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
