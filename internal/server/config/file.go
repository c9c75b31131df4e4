package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/dmitrijs2005/ingestgate/internal/flagx"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. INGESTGATE_STORAGE_BACKEND.
const EnvPrefix = "INGESTGATE"

// parseFile overlays values from the file named by -c/-config and from the
// environment. The file format is taken from its extension (json, yaml,
// toml). With no file only the environment is consulted.
func parseFile(cfg *Config, args []string) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about, so register every key
	// with its current value.
	setDefaults(v, cfg)

	if path := flagx.ConfigFileFlag(args); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config file %s", path)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return errors.Wrap(err, "decode config")
	}
	return nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("http_addr", c.HTTPAddr)
	v.SetDefault("grpc_addr", c.GRPCAddr)
	v.SetDefault("database_dsn", c.DatabaseDSN)
	v.SetDefault("registry_backend", c.RegistryBackend)
	v.SetDefault("registry_file", c.RegistryFile)
	v.SetDefault("storage_backend", c.StorageBackend)
	v.SetDefault("hdfs_url", c.HDFSURL)
	v.SetDefault("hdfs_user", c.HDFSUser)
	v.SetDefault("s3_root_user", c.S3RootUser)
	v.SetDefault("s3_root_password", c.S3RootPassword)
	v.SetDefault("s3_bucket", c.S3Bucket)
	v.SetDefault("s3_region", c.S3Region)
	v.SetDefault("s3_base_endpoint", c.S3BaseEndpoint)
	v.SetDefault("minio_endpoint", c.MinioEndpoint)
	v.SetDefault("minio_use_ssl", c.MinioUseSSL)
	v.SetDefault("local_root", c.LocalRoot)
	v.SetDefault("allowed_extensions", c.AllowedExtensions)
	v.SetDefault("sample_rows", c.SampleRows)
	v.SetDefault("max_upload_memory", c.MaxUploadMemory)
	v.SetDefault("log_backend", c.LogBackend)
	v.SetDefault("log_debug", c.LogDebug)
	v.SetDefault("rate_limit", c.RateLimit)
	v.SetDefault("rate_burst", c.RateBurst)
	v.SetDefault("shutdown_timeout", c.ShutdownTimeout)
}
