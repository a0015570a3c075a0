package config

import (
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"
)

type configBuilder struct {
	configs []*Config
	err     error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{
		configs: make([]*Config, 0, 4),
	}
}

// build merges the collected configs in order. mergo only fills fields that
// are still zero, so the first source to set a field wins.
func (b *configBuilder) build() (*Config, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occured during building config: %w", b.err)
	}

	config := new(Config)
	for _, cfg := range b.configs {
		if err := mergo.Merge(config, cfg); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	return config, config.validate()
}

func (b *configBuilder) withEnv() *configBuilder {
	envCfg := &Config{}
	if err := parseEnv(envCfg); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.configs = append(b.configs, envCfg)
	return b
}

// withJSON merges the JSON file whose path an earlier source supplied via
// JSONFilePath. No path, no file: configuration files stay optional.
func (b *configBuilder) withJSON() *configBuilder {
	jsonPath := ""
	for _, cfg := range b.configs {
		if cfg.JSONFilePath != "" {
			jsonPath = cfg.JSONFilePath
			break
		}
	}

	if jsonPath == "" {
		return b
	}
	return b.withJSONFile(jsonPath)
}

func (b *configBuilder) withJSONFile(jsonPath string) *configBuilder {
	jsonCfg, err := parseJSON(jsonPath)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.configs = append(b.configs, jsonCfg)
	return b
}

func (b *configBuilder) withDefaults() *configBuilder {
	b.configs = append(b.configs, &Config{
		Vault: Vault{
			AutoLockTimeout: DefaultAutoLockTimeout,
			KDFIterations:   DefaultKDFIterations,
			ContainerKey:    DefaultContainerKey,
		},
		Storage: Storage{
			Type: DefaultStorageType,
		},
		Identity: Identity{
			Provider:     DefaultIdentityProvider,
			AccountID:    DefaultAccountID,
			PollInterval: 5 * time.Minute,
		},
	})

	return b
}
