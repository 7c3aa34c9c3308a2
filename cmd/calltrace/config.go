package main

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Config is the optional tool configuration, read from --config or
// ~/.calltrace.yaml. Absence is not an error; defaults apply.
type Config struct {
	Listen string `yaml:"listen"`
	Output string `yaml:"output"`
}

func defaultToolConfig() *Config {
	return &Config{
		Listen: ":7070",
		Output: "call_trace.html",
	}
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultToolConfig()
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".calltrace.yaml")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if cfg.Listen == "" {
		cfg.Listen = ":7070"
	}
	if cfg.Output == "" {
		cfg.Output = "call_trace.html"
	}
	return cfg, nil
}
