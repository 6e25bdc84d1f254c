/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/cloudadapter/storagemodels"
)

// Service types understood by the adapter.
const (
	TypeDynamoDB = "dynamodb"
	TypeSimpleDB = "simpledb"
	TypeS3       = "s3"
	TypeSNS      = "sns"
)

// Config is the adapter configuration file.
type Config struct {
	Listen   string          `yaml:"listen"`
	LogLevel string          `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Services []ServiceConfig `yaml:"services" validate:"dive"`
}

// ServiceConfig is one configured service instance.
type ServiceConfig struct {
	Name       string         `yaml:"name" validate:"required,excludesall= /"`
	Type       string         `yaml:"type" validate:"required,oneof=dynamodb simpledb s3 sns"`
	Key        string         `yaml:"key"`
	Secret     string         `yaml:"secret"`
	AccessKey  string         `yaml:"access_key"`
	SecretKey  string         `yaml:"secret_key"`
	Region     string         `yaml:"region"`
	Proxy      string         `yaml:"proxy" validate:"omitempty,url"`
	Endpoint   string         `yaml:"endpoint" validate:"omitempty,url"`
	Container  string         `yaml:"container"`
	Parameters map[string]any `yaml:"parameters"`

	// ServerFilters are applied to every table query of a database service.
	ServerFilters map[string]*storagemodels.ServerFilters `yaml:"server_filters"`
}

// Raw returns the configuration mapping in the shape the resolver consumes.
func (s ServiceConfig) Raw() map[string]any {
	raw := map[string]any{}
	set := func(k, v string) {
		if v != "" {
			raw[k] = v
		}
	}
	set("key", s.Key)
	set("secret", s.Secret)
	set("access_key", s.AccessKey)
	set("secret_key", s.SecretKey)
	set("region", s.Region)
	set("proxy", s.Proxy)
	return raw
}

// Credentials resolves the service credentials. Every AWS provider needs a region.
func (s ServiceConfig) Credentials() Credentials {
	return Resolve(s.Raw(), true)
}

// Parameter returns a string parameter or def when unset.
func (s ServiceConfig) Parameter(name, def string) string {
	if v, ok := s.Parameters[name]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return def
}

// Default returns a configuration with defaults applied.
func Default() *Config {
	return &Config{
		Listen:   ":8080",
		LogLevel: "info",
	}
}

// Load reads a YAML configuration file. A .env file next to the process is
// loaded first when present, and ${VAR} references in the file are expanded.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates configuration content.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewBufferString(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks struct tags and cross-field rules.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	seen := make(map[string]bool, len(cfg.Services))
	for _, svc := range cfg.Services {
		if seen[svc.Name] {
			return fmt.Errorf("service %q is configured more than once", svc.Name)
		}
		seen[svc.Name] = true
	}
	return nil
}

// Service returns the named service configuration.
func (c *Config) Service(name string) (ServiceConfig, bool) {
	for _, svc := range c.Services {
		if svc.Name == name {
			return svc, true
		}
	}
	return ServiceConfig{}, false
}

func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := strings.ToLower(e.Namespace())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid url", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
