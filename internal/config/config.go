// Package config loads api.RunConfig from HCL or YAML files.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentic-research/cascade/api"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBudget      = 10
	DefaultValuesTable = "cells"
)

// ErrUnknownFormat is returned for config files that are neither HCL nor YAML.
var ErrUnknownFormat = errors.New("unknown config format")

var validate = validator.New()

// Default returns a config with every optional setting at its default.
func Default() api.RunConfig {
	return api.RunConfig{
		Budget:      DefaultBudget,
		ValuesTable: DefaultValuesTable,
	}
}

// Load reads and decodes path from fsys, then applies defaults. The result
// is not validated; callers override fields from flags first and then call
// Validate.
func Load(fsys billy.Filesystem, path string) (api.RunConfig, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return api.RunConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Decode(path, data)
}

// Decode parses data, choosing the format from the file name:
// .hcl and .hcl.json are HCL, .yaml and .yml are YAML. Keys absent from the
// file keep their defaults; keys present always win, even when zero.
func Decode(name string, data []byte) (api.RunConfig, error) {
	cfg := Default()
	switch {
	case strings.HasSuffix(name, ".hcl"), strings.HasSuffix(name, ".hcl.json"):
		if err := hclsimple.Decode(name, data, nil, &cfg); err != nil {
			return api.RunConfig{}, fmt.Errorf("decode %s: %w", name, err)
		}
	case filepath.Ext(name) == ".yaml", filepath.Ext(name) == ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return api.RunConfig{}, fmt.Errorf("decode %s: %w", name, err)
		}
	default:
		return api.RunConfig{}, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
	ApplyDefaults(&cfg)
	return cfg, nil
}

// ApplyDefaults fills optional fields that are empty. The budget is left
// alone so that an explicit zero fails validation.
func ApplyDefaults(cfg *api.RunConfig) {
	d := Default()
	if cfg.ValuesTable == "" {
		cfg.ValuesTable = d.ValuesTable
	}
}

// Validate checks the struct constraints on cfg and the combinations the
// tags cannot express.
func Validate(cfg api.RunConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.ValuesSelector != "" && strings.ToLower(filepath.Ext(cfg.Values)) != ".json" {
		return fmt.Errorf("invalid config: values_selector needs a .json value source, got %s", cfg.Values)
	}
	return nil
}
