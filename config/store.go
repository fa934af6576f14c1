package config

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/pingcap-inc/dwloader/pkg/errs"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "DWLOADER"

// Store is the process-wide configuration. Readers take a Snapshot per
// operation so a concurrent Save never changes a running operation's view.
type Store struct {
	path string
	mu   sync.RWMutex
	cfg  Config
}

// NewStore wraps an in-memory config, mainly for tests and one-shot commands.
func NewStore(cfg Config) *Store {
	cfg.fillDefaults()
	return &Store{cfg: cfg}
}

// Load reads the config file at path. Any key may be overridden by an
// environment variable such as DWLOADER_S3_BUCKET.
func Load(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errs.New(errs.KindConfiguration, "load config", errors.Annotatef(err, "read %s", path))
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.New(errs.KindConfiguration, "load config", errors.Trace(err))
	}
	cfg.fillDefaults()
	log.Info("Configuration loaded", zap.String("file", v.ConfigFileUsed()), zap.String("bucket", cfg.S3.Bucket))
	return &Store{path: path, cfg: cfg}, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.region", def.S3.Region)
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.use_temporary_credentials", false)
	v.SetDefault("redshift.host", "")
	v.SetDefault("redshift.port", def.Redshift.Port)
	v.SetDefault("redshift.database", "")
	v.SetDefault("redshift.user", "")
	v.SetDefault("redshift.password", "")
	v.SetDefault("redshift.sslmode", def.Redshift.SSLMode)
	v.SetDefault("scratch_dir", def.ScratchDir)
	v.SetDefault("api.addr", def.API.Addr)
}

// Snapshot returns a copy of the current config.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// JSON renders the current config the way it is persisted.
func (s *Store) JSON() ([]byte, error) {
	cfg := s.Snapshot()
	data, err := json.Marshal(&cfg)
	return data, errors.Trace(err)
}

// Save replaces the config with raw JSON. The new config must decode but may
// be incomplete; operations validate the keys they need. Values are decoded
// the same way Load decodes a file. The config is written back to the file the
// store was loaded from, if any, in that file's format.
func (s *Store) Save(raw []byte) error {
	v := viper.New()
	v.SetConfigType("json")
	setDefaults(v)
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return errs.New(errs.KindConfiguration, "save config", errors.Trace(err))
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return errs.New(errs.KindConfiguration, "save config", errors.Trace(err))
	}
	cfg.fillDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		if err := writeConfig(s.path, cfg); err != nil {
			return errs.New(errs.KindConfiguration, "save config", errors.Annotatef(err, "write %s", s.path))
		}
	}
	s.cfg = cfg
	log.Info("Configuration saved", zap.String("file", s.path))
	return nil
}

// writeConfig encodes cfg in the format named by the extension of path, or as
// JSON when path has none.
func writeConfig(path string, cfg Config) error {
	data, err := json.Marshal(&cfg)
	if err != nil {
		return errors.Trace(err)
	}
	var settings map[string]interface{}
	if err := json.Unmarshal(data, &settings); err != nil {
		return errors.Trace(err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetConfigPermissions(0o600)
	if err := v.MergeConfigMap(settings); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(v.WriteConfigAs(path))
}
