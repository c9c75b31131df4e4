package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		name     string
		args     []string
		expected func() *Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:8081", "-g", ":6000", "-d", "db",
				"-registry", "file", "-registry-file", "reg.yaml",
				"-storage", "s3", "-hdfs-url", "http://nn:9870", "-hdfs-user", "etl",
				"-local-root", "/tmp/x", "-ext", ".csv, .xlsx", "-sample-rows", "5",
				"-log", "zap", "-rate", "2.5",
			},
			expected: func() *Config {
				c := base()
				c.HTTPAddr = "127.0.0.1:8081"
				c.GRPCAddr = ":6000"
				c.DatabaseDSN = "db"
				c.RegistryBackend = RegistryFile
				c.RegistryFile = "reg.yaml"
				c.StorageBackend = StorageS3
				c.HDFSURL = "http://nn:9870"
				c.HDFSUser = "etl"
				c.LocalRoot = "/tmp/x"
				c.AllowedExtensions = []string{".csv", ".xlsx"}
				c.SampleRows = 5
				c.LogBackend = "zap"
				c.RateLimit = 2.5
				return c
			},
		},
		{
			name:     "unknown and config flags ignored",
			args:     []string{"-c", "gate.yaml", "-verbose", "-x", "1"},
			expected: base,
		},
		{
			name:    "bad int",
			args:    []string{"-sample-rows", "many"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := base()
			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected(), config))
		})
	}
}
