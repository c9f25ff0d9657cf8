package hashsearch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type SearchConfig struct {
	ZerosNeeded       uint   `json:"ZerosNeeded" yaml:"zeros_needed"`
	MatchesNeeded     uint   `json:"MatchesNeeded" yaml:"matches_needed" validate:"min=1"`
	Start             uint64 `json:"Start" yaml:"start"`
	SearchID          string `json:"SearchID" yaml:"search_id"`
	TracerServerAddr  string `json:"TracerServerAddr" yaml:"tracer_server_addr" validate:"omitempty,hostname_port"`
	TracerSecret      []byte `json:"TracerSecret" yaml:"tracer_secret"`
	MetricsListenAddr string `json:"MetricsListenAddr" yaml:"metrics_listen_addr" validate:"omitempty,hostname_port"`
}

var validate = validator.New()

// Validate checks field constraints and fills in defaults.
func (c *SearchConfig) Validate() error {
	if c.Start == 0 {
		c.Start = 1
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ReadConfig loads a YAML or JSON config depending on the file extension.
func ReadConfig(path string, config interface{}) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadYAMLConfig(path, config)
	default:
		return ReadJSONConfig(path, config)
	}
}

func ReadJSONConfig(path string, config interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(config); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func ReadYAMLConfig(path string, config interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
