package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/danmuck/uspkit/internal/protocol"
)

// Builder returns a record builder for cfg. A relative SenderCertFile is
// resolved against baseDir.
func (cfg ControllerConfig) Builder(baseDir string) (*protocol.Builder, error) {
	if err := ValidateControllerConfig(cfg); err != nil {
		return nil, err
	}
	var cert []byte
	if cfg.SenderCertFile != "" {
		path := cfg.SenderCertFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read sender cert (%s): %w", path, err)
		}
		cert = data
	}
	return protocol.NewBuilder(cfg.Version, cfg.FromID, cfg.PayloadSecurity, cfg.MacSignature, cert), nil
}
