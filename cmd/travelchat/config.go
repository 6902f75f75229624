package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	defaultServer = "http://localhost:5000"
	defaultStyle  = "auto"
)

// cliConfig is read from ~/.config/travelchat/config.toml.
type cliConfig struct {
	Server string `toml:"server"`
	// Style is a glamour style name: auto, dark, light, notty, dracula...
	Style    string `toml:"style"`
	Sanitize *bool  `toml:"sanitize"`
	// SessionFile keeps the session cookie between runs. Empty disables it.
	SessionFile string `toml:"session_file"`
}

// sessionState is the persisted session cookie.
type sessionState struct {
	Server string `toml:"server"`
	Name   string `toml:"name"`
	Value  string `toml:"value"`
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".travelchat"
	}
	return filepath.Join(dir, "travelchat")
}

func defaultConfigPath() string {
	return filepath.Join(configDir(), "config.toml")
}

func defaultConfig() cliConfig {
	return cliConfig{
		Server:      defaultServer,
		Style:       defaultStyle,
		SessionFile: filepath.Join(configDir(), "session.toml"),
	}
}

// loadConfig reads path, falling back to defaults for a missing file or
// unset keys.
func loadConfig(path string) (cliConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		path = defaultConfigPath()
	}

	var fileCfg cliConfig
	if _, err := toml.DecodeFile(path, &fileCfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if fileCfg.Server != "" {
		cfg.Server = fileCfg.Server
	}
	if fileCfg.Style != "" {
		cfg.Style = fileCfg.Style
	}
	if fileCfg.Sanitize != nil {
		cfg.Sanitize = fileCfg.Sanitize
	}
	if fileCfg.SessionFile != "" {
		cfg.SessionFile = fileCfg.SessionFile
	}
	return cfg, nil
}

func (c cliConfig) sanitize() bool {
	return c.Sanitize == nil || *c.Sanitize
}

// loadSession returns the stored cookie for server, if any.
func loadSession(path, server string) []*http.Cookie {
	if path == "" {
		return nil
	}
	var state sessionState
	if _, err := toml.DecodeFile(path, &state); err != nil {
		return nil
	}
	if state.Server != server || state.Name == "" || state.Value == "" {
		return nil
	}
	return []*http.Cookie{{Name: state.Name, Value: state.Value, Path: "/"}}
}

// saveSession stores the first cookie the server set.
func saveSession(path, server string, cookies []*http.Cookie) error {
	if path == "" || len(cookies) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(sessionState{
		Server: server,
		Name:   cookies[0].Name,
		Value:  cookies[0].Value,
	})
}
