package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const redacted = "********"

// WriteYAML writes the effective configuration with secrets masked.
func WriteYAML(w io.Writer, c *Config) error {
	out := *c
	if out.MQTT.Password != "" {
		out.MQTT.Password = redacted
	}
	if out.Auth.SigningKey != "" {
		out.Auth.SigningKey = redacted
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encode config yaml: %w", err)
	}
	return enc.Close()
}
