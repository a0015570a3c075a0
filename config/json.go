package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [Config] for JSON decoding. Durations are
// declared as [Duration] so the file may say "15m" instead of nanoseconds.
type StructuredJSONConfig struct {
	Vault struct {
		AutoLockTimeout   Duration `json:"auto_lock_timeout"`
		KDFIterations     int      `json:"kdf_iterations"`
		ContainerKey      string   `json:"container_key"`
		AllowBindingReset bool     `json:"allow_binding_reset"`
	} `json:"vault,omitempty"`

	Storage struct {
		Type string `json:"type"`
		Path string `json:"path"`
		DSN  string `json:"dsn"`

		S3 struct {
			Endpoint  string `json:"endpoint"`
			Region    string `json:"region"`
			Bucket    string `json:"bucket"`
			AccessKey string `json:"access_key"`
			SecretKey string `json:"secret_key"`
		} `json:"s3,omitempty"`
	} `json:"storage,omitempty"`

	Identity struct {
		Provider     string   `json:"provider"`
		AccountID    string   `json:"account_id"`
		Email        string   `json:"email"`
		TokenSignKey string   `json:"token_sign_key"`
		TokenIssuer  string   `json:"token_issuer"`
		BaseURL      string   `json:"base_url"`
		PollInterval Duration `json:"poll_interval"`
	} `json:"identity,omitempty"`
}

func parseJSON(jsonFilePath string) (*Config, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &Config{
		Vault: Vault{
			AutoLockTimeout:   time.Duration(jsonCfg.Vault.AutoLockTimeout),
			KDFIterations:     jsonCfg.Vault.KDFIterations,
			ContainerKey:      jsonCfg.Vault.ContainerKey,
			AllowBindingReset: jsonCfg.Vault.AllowBindingReset,
		},
		Storage: Storage{
			Type: jsonCfg.Storage.Type,
			Path: jsonCfg.Storage.Path,
			DSN:  jsonCfg.Storage.DSN,
			S3: S3{
				Endpoint:  jsonCfg.Storage.S3.Endpoint,
				Region:    jsonCfg.Storage.S3.Region,
				Bucket:    jsonCfg.Storage.S3.Bucket,
				AccessKey: jsonCfg.Storage.S3.AccessKey,
				SecretKey: jsonCfg.Storage.S3.SecretKey,
			},
		},
		Identity: Identity{
			Provider:     jsonCfg.Identity.Provider,
			AccountID:    jsonCfg.Identity.AccountID,
			Email:        jsonCfg.Identity.Email,
			TokenSignKey: jsonCfg.Identity.TokenSignKey,
			TokenIssuer:  jsonCfg.Identity.TokenIssuer,
			BaseURL:      jsonCfg.Identity.BaseURL,
			PollInterval: time.Duration(jsonCfg.Identity.PollInterval),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
