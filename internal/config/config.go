// Package config loads reader settings from a TOML file and reports changes.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"github.com/metcalfc/moyu/internal/logging"
	"github.com/metcalfc/moyu/internal/reader"
)

const fileName = "config.toml"

// ErrMalformed is returned by Load when the file is not valid TOML.
var ErrMalformed = errors.New("malformed config")

// Config holds the user-editable settings.
type Config struct {
	HeadingPattern string `toml:"heading_pattern"`
	PageSize       int    `toml:"page_size"`
	LogLevel       string `toml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		HeadingPattern: reader.DefaultHeadingPattern,
		PageSize:       reader.DefaultPageSize,
		LogLevel:       logging.LevelInfo,
	}
}

// Overrides are settings given on the command line. Non-zero fields win
// over the config file on every load.
type Overrides struct {
	PageSize       int
	HeadingPattern string
}

// Apply lays the overrides over c.
func (o Overrides) Apply(c Config) Config {
	if o.PageSize > 0 {
		c.PageSize = o.PageSize
	}
	if o.HeadingPattern != "" {
		c.HeadingPattern = o.HeadingPattern
	}
	return c
}

// Path returns XDG_CONFIG_HOME/moyu/config.toml or ~/.config/moyu/config.toml.
func Path() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "moyu", fileName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "moyu", fileName)
}

// Load reads the config at path on top of the defaults. A missing file is
// not an error. Values that fail validation are replaced by their defaults
// and reported in the returned error; the Config is usable either way.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("%w %s: %v", ErrMalformed, path, err)
	}
	return cfg.validate()
}

func (c Config) validate() (Config, error) {
	def := Default()
	var errs []error
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size %d: %w", c.PageSize, reader.ErrInvalidPageSize))
		c.PageSize = def.PageSize
	}
	if c.HeadingPattern == "" {
		c.HeadingPattern = def.HeadingPattern
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	return c, errors.Join(errs...)
}

// Watch reloads the config whenever the file at path is written or created,
// and sends the result on the returned channel. The channel is closed when
// ctx is done. A file that does not parse is logged and skipped, so the last
// good settings stay in effect. The parent directory is watched so that
// editors that save by renaming are noticed.
func Watch(ctx context.Context, path string) (<-chan Config, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	ch := make(chan Config, 1)
	target := filepath.Clean(path)
	go func() {
		defer close(ch)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				cfg, err := Load(path)
				if errors.Is(err, ErrMalformed) {
					logging.Warnf("reload config, keeping previous settings: %v", err)
					continue
				}
				if err != nil {
					logging.Warnf("reload config: %v", err)
				}
				select {
				case ch <- cfg:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logging.Warnf("config watcher: %v", err)
			}
		}
	}()
	return ch, nil
}
