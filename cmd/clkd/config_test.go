package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/secclk/clkcore/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clkd.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
board = " /etc/clkd/xplained.yaml "
listen = "127.0.0.1:9000"
simulate = false
main_xtal = 24000000
mdns = false
trace = true
log_level = "DEBUG"
`)
	cfg := Config{Listen: ":7410", Simulate: true, Advertise: true, LogLevel: "info", EventLog: "keep.cbor"}

	require.NoError(t, loadConfigFile(path, &cfg, nil))
	assert.Equal(t, "/etc/clkd/xplained.yaml", cfg.BoardFile)
	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
	assert.False(t, cfg.Simulate)
	assert.Equal(t, uint64(24000000), cfg.MainXtal)
	assert.False(t, cfg.Advertise)
	assert.True(t, cfg.Trace)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "keep.cbor", cfg.EventLog, "undefined keys leave the value alone")
}

func TestLoadConfigFileFlagsWin(t *testing.T) {
	path := writeConfig(t, "listen = \"127.0.0.1:9000\"\nsimulate = false\n")
	cfg := Config{Listen: ":1234", Simulate: true}

	require.NoError(t, loadConfigFile(path, &cfg, map[string]bool{"listen": true}))
	assert.Equal(t, ":1234", cfg.Listen)
	assert.False(t, cfg.Simulate)
}

func TestLoadConfigFileErrors(t *testing.T) {
	var cfg Config

	err := loadConfigFile(filepath.Join(t.TempDir(), "missing.toml"), &cfg, nil)
	assert.Error(t, err)

	err = loadConfigFile(writeConfig(t, "listen = [1,"), &cfg, nil)
	assert.Error(t, err)

	err = loadConfigFile(writeConfig(t, "listn = \":1\"\n"), &cfg, nil)
	assert.ErrorContains(t, err, "unknown key")
}

func TestLoadBoardDefault(t *testing.T) {
	b, err := loadBoard("")
	require.NoError(t, err)
	assert.Equal(t, "sama5d2-sim", b.Name)
	require.Len(t, b.Bindings, 1)
	assert.Equal(t, "sama5d2", b.Bindings[0].Table)
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(os.Stderr, "debug")
	assert.NoError(t, err)
	_, err = newLogger(os.Stderr, "loud")
	assert.Error(t, err)
}

func TestOpenHardwareSimulated(t *testing.T) {
	hw, err := openHardware(true)
	require.NoError(t, err)
	assert.NotNil(t, hw.PMC)
	assert.Nil(t, hw.SFR)
	assert.NoError(t, hw.Close())
}

func TestOpenEventLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Run("disabled", func(t *testing.T) {
		events, closeFn, err := openEventLog("", false, logger)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, log.NoopLogger{}, events)
	})

	t.Run("trace only", func(t *testing.T) {
		events, closeFn, err := openEventLog("", true, logger)
		require.NoError(t, err)
		defer closeFn()
		events.Log(log.Event{Layer: log.LayerClock, Clock: &log.ClockEvent{Op: log.ClockOpEnable, Node: "pck0"}})
		assert.Contains(t, buf.String(), "node=pck0")
	})

	t.Run("file and trace", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "clkd.clog")
		events, closeFn, err := openEventLog(path, true, logger)
		require.NoError(t, err)
		require.IsType(t, &log.MultiLogger{}, events)
		assert.Equal(t, 2, events.(*log.MultiLogger).Len())

		events.Log(log.Event{Layer: log.LayerClock, Clock: &log.ClockEvent{Op: log.ClockOpDisable, Node: "uhpck"}})
		closeFn()

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		got, err := log.ReadEvents(f)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "uhpck", got[0].Clock.Node)
	})

	t.Run("bad path", func(t *testing.T) {
		_, _, err := openEventLog(filepath.Join(t.TempDir(), "no", "such", "dir.clog"), false, logger)
		assert.Error(t, err)
	})
}
