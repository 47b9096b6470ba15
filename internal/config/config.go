package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/uspkit/internal/protocol/usprecord"
)

var ErrInvalidPayloadSecurity = errors.New("config: invalid payload security")

// ControllerConfig holds the record fields a controller keeps constant
// across every record it sends.
type ControllerConfig struct {
	Version         string
	FromID          string
	PayloadSecurity usprecord.PayloadSecurity
	MacSignature    []byte
	// SenderCertFile is read verbatim into Record.sender_cert.
	SenderCertFile string
}

type fileConfig struct {
	Version         string `toml:"version"`
	FromID          string `toml:"from_id"`
	PayloadSecurity string `toml:"payload_security"`
	MacSignature    string `toml:"mac_signature"`
	SenderCertFile  string `toml:"sender_cert_file"`
}

func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Version:         "1.1",
		FromID:          "self::uspkit",
		PayloadSecurity: usprecord.PayloadSecurityPlaintext,
	}
}

// LoadControllerConfig reads a TOML file; keys that are absent keep their
// default values.
func LoadControllerConfig(path string) (ControllerConfig, error) {
	cfg := DefaultControllerConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ControllerConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	if meta.IsDefined("version") {
		cfg.Version = strings.TrimSpace(raw.Version)
	}
	if meta.IsDefined("from_id") {
		cfg.FromID = strings.TrimSpace(raw.FromID)
	}
	if meta.IsDefined("payload_security") {
		sec, ok := usprecord.ParsePayloadSecurity(raw.PayloadSecurity)
		if !ok {
			return ControllerConfig{}, fmt.Errorf("%w: %q", ErrInvalidPayloadSecurity, raw.PayloadSecurity)
		}
		cfg.PayloadSecurity = sec
	}
	if meta.IsDefined("mac_signature") {
		mac, err := hex.DecodeString(strings.TrimSpace(raw.MacSignature))
		if err != nil {
			return ControllerConfig{}, fmt.Errorf("parse mac_signature: %w", err)
		}
		cfg.MacSignature = mac
	}
	if meta.IsDefined("sender_cert_file") {
		cfg.SenderCertFile = strings.TrimSpace(raw.SenderCertFile)
	}

	if err := ValidateControllerConfig(cfg); err != nil {
		return ControllerConfig{}, err
	}
	return cfg, nil
}

func ValidateControllerConfig(cfg ControllerConfig) error {
	if strings.TrimSpace(cfg.Version) == "" {
		return fmt.Errorf("controller config missing version")
	}
	if strings.TrimSpace(cfg.FromID) == "" {
		return fmt.Errorf("controller config missing from_id")
	}
	switch cfg.PayloadSecurity {
	case usprecord.PayloadSecurityPlaintext, usprecord.PayloadSecurityTLS12:
	default:
		return fmt.Errorf("%w: %v", ErrInvalidPayloadSecurity, cfg.PayloadSecurity)
	}
	return nil
}
