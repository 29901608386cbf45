// Package config loads the settings file into the shared config store.
package config

import (
	"path/filepath"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"

	"github.com/blogcms/blog-api/library/log"
)

// LoadFromFile reads the YAML file at cfgPath into gconfig.Shared.
// `cfg_dir` is set to the file's directory so relative paths can be resolved.
func LoadFromFile(cfgPath string) error {
	gconfig.Shared.Set("cfg_dir", filepath.Dir(cfgPath))
	if err := gconfig.Shared.LoadFromFile(cfgPath); err != nil {
		return errors.Wrapf(err, "load configuration from %q", cfgPath)
	}

	log.Logger.Info("load configuration", zap.String("config", cfgPath))
	return nil
}

// ResolvePath returns p unchanged when absolute, otherwise joins it to `cfg_dir`.
func ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}

	dir := gconfig.Shared.GetString("cfg_dir")
	if dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
