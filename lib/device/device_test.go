package device

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMeminfo(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meminfo")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noEnv(string) string { return "" }

func TestMemory_IsLowEndDevice(t *testing.T) {
	tests := []struct {
		name    string
		meminfo string
		want    bool
	}{
		{"low end", "MemTotal:         503412 kB\nMemFree: 1 kB\n", true},
		{"exactly threshold", "MemTotal: 524288 kB\n", true},
		{"regular", "MemFree: 10 kB\nMemTotal:        3919264 kB\n", false},
		{"missing field", "MemFree: 10 kB\n", false},
		{"garbage", "MemTotal: lots kB\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Memory{Path: writeMeminfo(t, tt.meminfo), ThresholdMB: DefaultLowEndThresholdMB, Getenv: noEnv}
			assert.Equal(t, tt.want, m.IsLowEndDevice())
		})
	}
}

func TestMemory_EnvOverride(t *testing.T) {
	path := writeMeminfo(t, "MemTotal: 100 kB\n")

	m := &Memory{Path: path, ThresholdMB: 512, Getenv: func(string) string { return "false" }}
	assert.False(t, m.IsLowEndDevice())

	m = &Memory{Path: filepath.Join(t.TempDir(), "none"), ThresholdMB: 512, Getenv: func(string) string { return "TRUE" }}
	assert.True(t, m.IsLowEndDevice())
}

func TestMemory_Unreadable(t *testing.T) {
	m := &Memory{Path: filepath.Join(t.TempDir(), "none"), ThresholdMB: 512, Getenv: noEnv}
	assert.False(t, m.IsLowEndDevice())
}

func TestMemory_ComputedOnce(t *testing.T) {
	path := writeMeminfo(t, "MemTotal: 100 kB\n")
	m := &Memory{Path: path, ThresholdMB: 512, Getenv: noEnv}
	require.True(t, m.IsLowEndDevice())

	require.NoError(t, os.WriteFile(path, []byte("MemTotal: 99999999 kB\n"), 0o600))
	assert.True(t, m.IsLowEndDevice())
}

func TestParseMemTotal(t *testing.T) {
	kb, err := parseMemTotal(strings.NewReader("MemTotal: 2048 kB\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(2048), kb)
}
