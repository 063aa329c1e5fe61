// =============================================================================
// config.go - Settings From Flags, Config File and Environment
// =============================================================================
//
// mpdc reads its settings from four layers. Later layers override earlier
// ones field by field:
//
//   1. Built-in defaults (localhost:6600, 30s timeout)
//   2. MPD_* environment variables (mpdprotocol.LoadConfig)
//   3. The YAML config file, ~/.config/mpdc/config.yaml by default
//   4. Command-line flags
//
// The config file is watched with fsnotify. When it changes, the merged
// settings are recomputed and handed to the client as its new defaults, so
// the next .connect uses them. An open connection is never touched.
//
// Example config file:
//
//	host: music.lan
//	port: 6600
//	password: secret
//	timeout: 10s
//	history_size: 1000
//	reverse: false
//
// =============================================================================

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/mpdcomm/mpdcomm/mpdprotocol"
)

const (
	// configDirName and configFileName locate the default config file
	// under the user's home directory.
	configDirName  = ".config/mpdc"
	configFileName = "config.yaml"
)

// GO CONCEPT: Struct Tags
// -----------------------
// The backquoted strings after each field are struct tags. They are plain
// metadata that libraries read through reflection. yaml.v3 uses the "yaml"
// key to map document keys to fields, so history_size in the file lands in
// HistorySize. Missing keys leave the field at its zero value, which the
// merge below treats as "not set".
//
// Compare with Python: dataclasses plus a field(metadata={"yaml": ...}) or
// pydantic's Field(alias="history_size") carry the same information.

// fileConfig is the content of the YAML config file.
type fileConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Password    string        `yaml:"password"`
	Timeout     time.Duration `yaml:"timeout"`
	HistorySize int           `yaml:"history_size"`
	Plain       bool          `yaml:"plain"`
	Reverse     bool          `yaml:"reverse"`
}

// defaultConfigPath returns ~/.config/mpdc/config.yaml.
func defaultConfigPath() string {
	return filepath.Join(homeDir(), configDirName, configFileName)
}

// loadFileConfig reads the config file at path. A missing file is not an
// error and yields an empty config.
func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fileConfig{}, fmt.Errorf("parse config %s: invalid port %d", path, cfg.Port)
	}
	return cfg, nil
}

// settings is the merged result of every configuration layer.
type settings struct {
	host        string
	port        int
	password    string
	timeout     time.Duration
	historySize int
	plain       bool
	reverse     bool

	// explicit is true when some layer named the server. Without it a local
	// socket is preferred over the built-in localhost default.
	explicit bool
}

// mergeSettings applies the layers in order: env (which already carries the
// built-in defaults), then the file, then the flags.
func mergeSettings(env mpdprotocol.Config, file fileConfig, args arguments) settings {
	s := settings{
		host:        env.Host,
		port:        env.Port,
		password:    env.Password,
		timeout:     env.Timeout,
		historySize: defaultHistorySize,
		explicit:    env.Host != mpdprotocol.DefaultHost || env.Port != mpdprotocol.DefaultPort,
	}

	s.applyEndpoint(file.Host, file.Port, file.Password)
	if file.Timeout > 0 {
		s.timeout = file.Timeout
	}
	if file.HistorySize > 0 {
		s.historySize = file.HistorySize
	}
	s.plain = file.Plain
	s.reverse = file.Reverse

	s.applyEndpoint(args.host, args.port, args.password)
	if args.plain {
		s.plain = true
	}
	return s
}

// applyEndpoint overrides the endpoint fields that are set. A password
// embedded as "password@host" applies unless the same layer also sets an
// explicit password.
func (s *settings) applyEndpoint(host string, port int, password string) {
	if host != "" {
		embedded, h := splitHostPassword(host)
		s.host = h
		s.explicit = true
		if embedded != "" {
			s.password = embedded
		}
	}
	if port > 0 {
		s.port = port
		s.explicit = true
	}
	if password != "" {
		s.password = password
	}
}

// clientConfig builds the client defaults for the located server.
func (s settings) clientConfig(ep serverEndpoint) mpdprotocol.Config {
	return mpdprotocol.Config{
		Host:     ep.host,
		Port:     ep.port,
		Password: s.password,
		Timeout:  s.timeout,
	}
}

// splitHostPassword splits "password@host". A leading '@' is an abstract
// socket name and is kept.
func splitHostPassword(host string) (password, rest string) {
	if i := strings.IndexByte(host, '@'); i > 0 {
		return host[:i], host[i+1:]
	}
	return "", host
}

// =============================================================================
// Config File Watcher
// =============================================================================

// configWatcher reloads the config file whenever it changes.
type configWatcher struct {
	watcher *fsnotify.Watcher
	done    sync.WaitGroup
}

// GO CONCEPT: Watching the Directory, Not the File
// ------------------------------------------------
// Many editors save by writing a temporary file and renaming it over the
// original. A watch on the file itself would follow the old inode and miss
// the new content. Watching the parent directory and filtering events by
// name sees the rename as a Create of the watched path.

// watchConfig starts watching path and calls apply with the freshly parsed
// file after every change. apply runs on the watcher's goroutine. Parse
// errors are logged and the previous settings stay in effect.
func watchConfig(path string, logger *slog.Logger, apply func(fileConfig)) (*configWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch config: %w", err)
	}

	cw := &configWatcher{watcher: w}
	target := filepath.Clean(path)
	cw.done.Add(1)
	go func() {
		defer cw.done.Done()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
					continue
				}
				cfg, err := loadFileConfig(path)
				if err != nil {
					logger.Warn("config.reload", slog.String("path", path), slog.String("err", err.Error()))
					continue
				}
				logger.Debug("config.reload", slog.String("path", path), slog.String("op", ev.Op.String()))
				apply(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("config.watch", slog.String("err", err.Error()))
			}
		}
	}()
	return cw, nil
}

// Close stops the watcher and waits for a running reload to finish.
func (cw *configWatcher) Close() error {
	err := cw.watcher.Close()
	cw.done.Wait()
	return err
}
