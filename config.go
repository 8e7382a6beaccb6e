package eximcheck

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/emersion/go-message/mail"
)

const defaultTimeout = 10 * time.Second

// LoadConfig reads a TOML harness configuration from path.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %v", path, err)
	}
	return cfg, nil
}

// Validate reports configuration errors. These are fatal usage errors and
// must never be recorded as failed assertions.
func (c *Config) Validate() error {
	if c.Exim.Binary == "" {
		return errors.New("exim binary path is required")
	}
	if c.Exim.Timeout != "" {
		if _, err := time.ParseDuration(c.Exim.Timeout); err != nil {
			return fmt.Errorf("invalid timeout %q: %v", c.Exim.Timeout, err)
		}
	}
	if c.Exim.Sender != "" && c.Exim.Sender != "<>" {
		if err := validateSender(c.Exim.Sender); err != nil {
			return fmt.Errorf("invalid envelope sender %q: %v", c.Exim.Sender, err)
		}
	}
	return nil
}

func (c *Config) timeout() time.Duration {
	d, err := time.ParseDuration(c.Exim.Timeout)
	if err != nil {
		return defaultTimeout
	}
	return d
}

// validateSender checks the configured envelope sender for RFC 5322 address
// syntax. Addresses under test are deliberately not validated: exim's -bt
// accepts bare local parts and router-specific syntax.
func validateSender(s string) error {
	var h mail.Header
	h.Set("From", s)
	list, err := h.AddressList("From")
	if err != nil {
		return err
	}
	if len(list) != 1 {
		return errors.New("expected exactly one address")
	}
	return nil
}
