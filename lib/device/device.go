// Package device classifies the memory class of the host.
package device

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

const (
	// DefaultMeminfoPath is read on Linux hosts.
	DefaultMeminfoPath = "/proc/meminfo"
	// DefaultLowEndThresholdMB is the largest memory size still treated as
	// low end.
	DefaultLowEndThresholdMB = 512
	// EnvLowEndDevice forces the low-end classification when set to "true"
	// or "false".
	EnvLowEndDevice = "LIBLOAD_LOW_END_DEVICE"
)

// Memory reports whether the device is low end. The answer is computed once.
type Memory struct {
	Path        string
	ThresholdMB int
	Getenv      func(string) string

	once   sync.Once
	lowEnd bool
}

// NewMemory returns a Memory with default settings.
func NewMemory() *Memory {
	return &Memory{
		Path:        DefaultMeminfoPath,
		ThresholdMB: DefaultLowEndThresholdMB,
		Getenv:      os.Getenv,
	}
}

// IsLowEndDevice reports whether total memory is at or below the threshold.
// An unreadable meminfo means not low end.
func (m *Memory) IsLowEndDevice() bool {
	m.once.Do(func() {
		m.lowEnd = m.detect()
	})
	return m.lowEnd
}

func (m *Memory) detect() bool {
	if m.Getenv != nil {
		switch strings.ToLower(m.Getenv(EnvLowEndDevice)) {
		case "true", "1":
			return true
		case "false", "0":
			return false
		}
	}

	f, err := os.Open(m.Path)
	if err != nil {
		return false
	}
	defer f.Close()

	totalKB, err := parseMemTotal(f)
	if err != nil {
		return false
	}
	return totalKB <= int64(m.ThresholdMB)*1024
}

// parseMemTotal returns MemTotal in kB.
func parseMemTotal(r io.Reader) (int64, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || fields[0] != "MemTotal:" {
			continue
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse MemTotal: %w", err)
		}
		return kb, nil
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("MemTotal not found")
}
