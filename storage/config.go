package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/viant/arrayfile/container"
	"github.com/viant/arrayfile/meta"
	"gopkg.in/yaml.v3"
)

// Config holds manager settings loaded from YAML.
type Config struct {
	Folder        string `yaml:"folder"`
	BufferSize    int    `yaml:"bufferSize" validate:"gte=0"`
	AccessMode    string `yaml:"accessMode" validate:"omitempty,octal_mode"`
	DataVersion   int64  `yaml:"dataVersion" validate:"gte=0"`
	Namespace     string `yaml:"namespace" validate:"omitempty,printascii"`
	Compression   string `yaml:"compression" validate:"omitempty,oneof=none zstd"`
	BusyTimeoutMS int    `yaml:"busyTimeoutMs" validate:"gte=0"`
	FileLocks     bool   `yaml:"fileLocks"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	ret := validator.New()
	_ = ret.RegisterValidation("octal_mode", func(fl validator.FieldLevel) bool {
		_, err := parseMode(fl.Field().String())
		return err == nil
	})
	return ret
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if cfg.Folder != "" {
		if cfg.Folder, err = expandUserPath(cfg.Folder); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			first := errs[0]
			return fmt.Errorf("config: %s: failed %q validation (value %v)", first.Namespace(), first.Tag(), first.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Options converts the config into manager options; zero fields keep defaults.
func (c *Config) Options() ([]Option, error) {
	var ret []Option
	if c.BufferSize > 0 {
		ret = append(ret, WithBufferSize(c.BufferSize))
	}
	if c.AccessMode != "" {
		mode, err := parseMode(c.AccessMode)
		if err != nil {
			return nil, err
		}
		ret = append(ret, WithAccessMode(mode))
	}
	if c.DataVersion > 0 {
		ret = append(ret, WithDataVersion(meta.Int(c.DataVersion)))
	}
	if c.Namespace != "" {
		ret = append(ret, WithNamespace(c.Namespace))
	}
	if c.Compression != "" {
		codec, err := container.ParseCodec(c.Compression)
		if err != nil {
			return nil, err
		}
		ret = append(ret, WithCompression(codec))
	}
	if c.BusyTimeoutMS > 0 {
		ret = append(ret, WithBusyTimeout(time.Duration(c.BusyTimeoutMS)*time.Millisecond))
	}
	if c.FileLocks {
		ret = append(ret, WithFileLocks(true))
	}
	return ret, nil
}

func parseMode(s string) (os.FileMode, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0o"), 8, 32)
	if err != nil {
		return 0, fmt.Errorf("config: invalid access mode %q: %w", s, err)
	}
	if v > 0o777 {
		return 0, fmt.Errorf("config: access mode %q exceeds 0777", s)
	}
	return os.FileMode(v), nil
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	if trimmed != "~" && !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("config: unsupported ~user path: %s", path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if trimmed == "~" {
		return home, nil
	}
	return filepath.Join(home, trimmed[2:]), nil
}
