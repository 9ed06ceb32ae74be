package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gagliardetto/solana-go/rpc"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/Overclock-Validator/scilla/pkg/util"
)

const (
	DefaultRpcURL      = "https://api.devnet.solana.com"
	DefaultKeypairPath = "~/.config/solana/id.json"
	defaultConfigPath  = "~/.config/scilla.toml"
)

const (
	FieldRpcURL          = "rpc-url"
	FieldCommitmentLevel = "commitment-level"
	FieldKeypairPath     = "keypair-path"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigExists   = errors.New("config file already exists")
	ErrInvalidConfig  = errors.New("invalid config")
	ErrUnknownField   = errors.New("unknown config field")
)

// Config is read once at start and not modified afterwards, except by the
// config edit command which saves a new copy.
type Config struct {
	RpcURL          string `toml:"rpc-url" yaml:"rpc-url"`
	CommitmentLevel string `toml:"commitment-level" yaml:"commitment-level"`
	KeypairPath     string `toml:"keypair-path" yaml:"keypair-path"`
}

func Default() *Config {
	return &Config{
		RpcURL:          DefaultRpcURL,
		CommitmentLevel: string(rpc.CommitmentConfirmed),
		KeypairPath:     DefaultKeypairPath,
	}
}

func DefaultPath() (string, error) {
	return util.ExpandTilde(defaultConfigPath)
}

func (cfg *Config) Commitment() rpc.CommitmentType {
	return rpc.CommitmentType(cfg.CommitmentLevel)
}

func ValidCommitment(level string) bool {
	switch rpc.CommitmentType(level) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return true
	}
	return false
}

func (cfg *Config) Validate() error {
	endpoint, err := url.Parse(cfg.RpcURL)
	if err != nil || (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return fmt.Errorf("%w: %s %q is not an http(s) URL", ErrInvalidConfig, FieldRpcURL, cfg.RpcURL)
	}
	if !ValidCommitment(cfg.CommitmentLevel) {
		return fmt.Errorf("%w: %s %q must be processed, confirmed or finalized", ErrInvalidConfig, FieldCommitmentLevel, cfg.CommitmentLevel)
	}
	if strings.TrimSpace(cfg.KeypairPath) == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, FieldKeypairPath)
	}
	return nil
}

// Set updates one field by its file key. cfg is left unchanged when the
// result would not validate.
func (cfg *Config) Set(field string, value string) error {
	updated := *cfg
	switch field {
	case FieldRpcURL:
		updated.RpcURL = value
	case FieldCommitmentLevel:
		updated.CommitmentLevel = value
	case FieldKeypairPath:
		updated.KeypairPath = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	err := updated.Validate()
	if err != nil {
		return err
	}
	*cfg = updated
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decode(path string, cfg *Config) error {
	if isYAML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return yaml.Unmarshal(data, cfg)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	for _, undecoded := range meta.Undecoded() {
		klog.Warningf("ignoring unknown key %q in %s", undecoded.String(), path)
	}
	return nil
}

// Load reads and validates the config file at path. TOML is assumed unless
// the extension says YAML.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}

	cfg := &Config{}
	err := decode(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault falls back to Default when no file exists at path.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, ErrConfigNotFound) {
		klog.V(2).Infof("no config at %s, using defaults", path)
		return Default(), nil
	}
	return cfg, err
}

func encode(w io.Writer, path string, cfg *Config) error {
	if isYAML(path) {
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(cfg)
	}
	return toml.NewEncoder(w).Encode(cfg)
}

// Save writes cfg to path, creating parent directories. An existing file is
// only replaced when overwrite is set.
func Save(path string, cfg *Config, overwrite bool) error {
	err := cfg.Validate()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return encode(f, path, cfg)
}
