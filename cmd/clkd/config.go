package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// fileConfig mirrors Config for the TOML daemon configuration.
type fileConfig struct {
	Board       string `toml:"board"`
	Listen      string `toml:"listen"`
	Simulate    bool   `toml:"simulate"`
	MainXtal    uint64 `toml:"main_xtal"`
	EventLog    string `toml:"event_log"`
	Trace       bool   `toml:"trace"`
	MDNS        bool   `toml:"mdns"`
	Name        string `toml:"name"`
	Interactive bool   `toml:"interactive"`
	LogLevel    string `toml:"log_level"`
}

// loadConfigFile applies the keys defined in path to cfg. Keys whose flag
// was set on the command line keep the flag value.
func loadConfigFile(path string, cfg *Config, explicit map[string]bool) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load clkd config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load clkd config: unknown key %q", undecoded[0].String())
	}

	apply := func(key, flagName string, set func()) {
		if meta.IsDefined(key) && !explicit[flagName] {
			set()
		}
	}

	apply("board", "board", func() { cfg.BoardFile = strings.TrimSpace(raw.Board) })
	apply("listen", "listen", func() { cfg.Listen = strings.TrimSpace(raw.Listen) })
	apply("simulate", "simulate", func() { cfg.Simulate = raw.Simulate })
	apply("main_xtal", "xtal", func() { cfg.MainXtal = raw.MainXtal })
	apply("event_log", "event-log", func() { cfg.EventLog = strings.TrimSpace(raw.EventLog) })
	apply("trace", "trace", func() { cfg.Trace = raw.Trace })
	apply("mdns", "mdns", func() { cfg.Advertise = raw.MDNS })
	apply("name", "name", func() { cfg.InstanceName = strings.TrimSpace(raw.Name) })
	apply("interactive", "interactive", func() { cfg.Interactive = raw.Interactive })
	apply("log_level", "log-level", func() { cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel)) })

	return nil
}
