package config

import (
	"strings"

	"github.com/pingcap-inc/dwloader/pkg/errs"
)

const (
	DefaultRegion       = "us-east-1"
	DefaultRedshiftPort = 5439
	DefaultSSLMode      = "require"
	DefaultScratchDir   = "temp"
	DefaultAPIAddr      = "127.0.0.1:5000"
)

// S3Cfg locates the destination bucket and the credentials used both for the
// upload and for the COPY statement.
type S3Cfg struct {
	// Bucket is required.
	Bucket string `json:"bucket" mapstructure:"bucket"`
	// Prefix is optional. A non-empty prefix is always normalized to end with "/".
	Prefix string `json:"prefix" mapstructure:"prefix"`
	// Region is optional, defaults to us-east-1.
	Region string `json:"region" mapstructure:"region"`
	// AccessKey and SecretKey are optional but must be set together. When empty
	// the AWS environment credentials are used.
	AccessKey string `json:"access_key" mapstructure:"access_key"`
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`
	// Endpoint is optional, for S3 compatible stores.
	Endpoint string `json:"endpoint,omitempty" mapstructure:"endpoint"`
	// UseTemporaryCredentials makes COPY statements carry STS session credentials.
	UseTemporaryCredentials bool `json:"use_temporary_credentials,omitempty" mapstructure:"use_temporary_credentials"`
}

// RedshiftCfg holds the warehouse connection parameters. Host, Database, User
// and Password are required.
type RedshiftCfg struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Database string `json:"database" mapstructure:"database"`
	User     string `json:"user" mapstructure:"user"`
	Password string `json:"password" mapstructure:"password"`
	SSLMode  string `json:"sslmode,omitempty" mapstructure:"sslmode"`
}

type APICfg struct {
	Addr string `json:"addr,omitempty" mapstructure:"addr"`
}

type Config struct {
	S3       S3Cfg       `json:"s3" mapstructure:"s3"`
	Redshift RedshiftCfg `json:"redshift" mapstructure:"redshift"`
	// ScratchDir receives spreadsheets converted to csv before upload.
	ScratchDir string `json:"scratch_dir,omitempty" mapstructure:"scratch_dir"`
	API        APICfg `json:"api,omitempty" mapstructure:"api"`
}

// Default returns a Config with every optional field at its default value.
func Default() Config {
	return Config{
		S3:         S3Cfg{Region: DefaultRegion},
		Redshift:   RedshiftCfg{Port: DefaultRedshiftPort, SSLMode: DefaultSSLMode},
		ScratchDir: DefaultScratchDir,
		API:        APICfg{Addr: DefaultAPIAddr},
	}
}

// NormalizedPrefix returns the key prefix ending with "/", or "" when unset.
func (c S3Cfg) NormalizedPrefix() string {
	if c.Prefix == "" || strings.HasSuffix(c.Prefix, "/") {
		return c.Prefix
	}
	return c.Prefix + "/"
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.S3.Region == "" {
		c.S3.Region = def.S3.Region
	}
	if c.Redshift.Port == 0 {
		c.Redshift.Port = def.Redshift.Port
	}
	if c.Redshift.SSLMode == "" {
		c.Redshift.SSLMode = def.Redshift.SSLMode
	}
	if c.ScratchDir == "" {
		c.ScratchDir = def.ScratchDir
	}
	if c.API.Addr == "" {
		c.API.Addr = def.API.Addr
	}
}

// ValidateS3 checks the keys needed to upload.
func (c *Config) ValidateS3() error {
	var missing []string
	if c.S3.Bucket == "" {
		missing = append(missing, "s3.bucket")
	}
	if (c.S3.AccessKey == "") != (c.S3.SecretKey == "") {
		missing = append(missing, "s3.access_key/s3.secret_key (set both or neither)")
	}
	return missingErr("validate s3 config", missing)
}

// ValidateRedshift checks the keys needed to open a warehouse connection.
func (c *Config) ValidateRedshift() error {
	var missing []string
	for _, kv := range []struct{ key, val string }{
		{"redshift.host", c.Redshift.Host},
		{"redshift.database", c.Redshift.Database},
		{"redshift.user", c.Redshift.User},
		{"redshift.password", c.Redshift.Password},
	} {
		if kv.val == "" {
			missing = append(missing, kv.key)
		}
	}
	if c.Redshift.Port <= 0 || c.Redshift.Port > 65535 {
		missing = append(missing, "redshift.port")
	}
	return missingErr("validate redshift config", missing)
}

// Validate checks every required key.
func (c *Config) Validate() error {
	if err := c.ValidateS3(); err != nil {
		return err
	}
	return c.ValidateRedshift()
}

func missingErr(op string, missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return errs.Newf(errs.KindConfiguration, op, "missing or invalid: %s", strings.Join(missing, ", "))
}
