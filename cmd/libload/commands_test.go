package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowmerak/libload/lib/config"
	"github.com/snowmerak/libload/lib/loader"
	"github.com/snowmerak/libload/lib/resultcode"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "libload.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noEnv(string) string { return "" }

func TestVersionCommand(t *testing.T) {
	path := writeConfig(t, "version: \"3.1\"\nlibraries: [base, content]\n")

	cmd := newRootCommand(environment{getenv: func(k string) string {
		if k == config.EnvConfigPath {
			return path
		}
		return ""
	}})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "base,content@3.1\n", out.String())
}

func TestVersionCommand_MissingConfig(t *testing.T) {
	cmd := newRootCommand(environment{getenv: noEnv})
	cmd.SetArgs([]string{"version", "--config", filepath.Join(t.TempDir(), "none.yaml")})
	cmd.SetOut(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}

func missingLibraryConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return writeConfig(t, "version: \"1\"\nlibraries: [libload-test-definitely-missing]\nsearch_paths: ["+dir+"]\n")
}

func TestLoadCommand_MissingLibrary(t *testing.T) {
	path := missingLibraryConfig(t)

	cmd := newRootCommand(environment{getenv: noEnv})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"load", "--config", path, "--json"})

	err := cmd.Execute()
	require.Error(t, err)

	var exitErr *exitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, int(resultcode.NativeLibraryLoadFailed), exitErr.code)

	var report map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "not_loaded", report["stage"])
	assert.Equal(t, float64(resultcode.NativeLibraryLoadFailed), report["result_code"])
}

func TestLoadCommand_RepeatedInOneProcess(t *testing.T) {
	path := missingLibraryConfig(t)

	var installed []*loader.Loader
	install := func(l *loader.Loader) error {
		installed = append(installed, l)
		return nil
	}

	for i := 0; i < 2; i++ {
		cmd := newRootCommand(environment{getenv: noEnv, install: install})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"load", "--config", path})

		err := cmd.Execute()
		require.NotErrorIs(t, err, loader.ErrAlreadyInstalled)

		var exitErr *exitError
		require.ErrorAs(t, err, &exitErr, "run %d", i)
		assert.Equal(t, int(resultcode.NativeLibraryLoadFailed), exitErr.code, "run %d", i)
	}

	require.Len(t, installed, 2)
	assert.NotSame(t, installed[0], installed[1])
}

func TestRun_InstallErrorIsReturned(t *testing.T) {
	path := missingLibraryConfig(t)
	errInstall := errors.New("install refused")

	cmd := newRootCommand(environment{getenv: noEnv, install: func(*loader.Loader) error { return errInstall }})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"load", "--config", path})

	err := cmd.Execute()
	require.ErrorIs(t, err, errInstall)
	var exitErr *exitError
	assert.False(t, errors.As(err, &exitErr))
}
