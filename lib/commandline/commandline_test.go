package commandline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNative map[string]string

func (f fakeNative) HasSwitch(name string) bool {
	_, ok := f[name]
	return ok
}

func (f fakeNative) SwitchValue(name string) string {
	return f[name]
}

func TestNew_ParsesSwitches(t *testing.T) {
	c := New([]string{"prog", "--enable-logging", "--v=1", "-single", "positional", "--", "--=x"}, nil)

	assert.True(t, c.HasSwitch("enable-logging"))
	assert.Equal(t, "", c.SwitchValue("enable-logging"))
	assert.Equal(t, "1", c.SwitchValue("v"))
	assert.True(t, c.HasSwitch("single"))
	assert.False(t, c.HasSwitch("positional"))
	assert.Equal(t, []string{"prog", "--enable-logging", "--v=1", "-single", "positional", "--", "--=x"}, c.Argv())
}

func TestNew_Empty(t *testing.T) {
	c := New(nil, nil)
	assert.Equal(t, []string{""}, c.Argv())
	assert.False(t, c.HasSwitch("x"))
}

func TestAppendSwitch(t *testing.T) {
	c := New([]string{"prog"}, nil)
	require.NoError(t, c.AppendSwitch("a", ""))
	require.NoError(t, c.AppendSwitch("b", "2"))

	assert.Equal(t, []string{"prog", "--a", "--b=2"}, c.Argv())
	assert.Equal(t, "2", c.SwitchValue("b"))
}

func TestEnableNativeProxy(t *testing.T) {
	c := New([]string{"prog", "--go-only"}, fakeNative{"native-only": "yes"})
	assert.True(t, c.HasSwitch("go-only"))
	assert.False(t, c.IsNativeProxy())

	c.EnableNativeProxy()
	c.EnableNativeProxy()

	assert.True(t, c.IsNativeProxy())
	assert.False(t, c.HasSwitch("go-only"))
	assert.True(t, c.HasSwitch("native-only"))
	assert.Equal(t, "yes", c.SwitchValue("native-only"))
	assert.ErrorIs(t, c.AppendSwitch("late", ""), ErrProxied)
}

func TestEnableNativeProxy_WithoutNativeSource(t *testing.T) {
	c := New([]string{"prog", "--x=1"}, nil)
	c.EnableNativeProxy()

	assert.Equal(t, "1", c.SwitchValue("x"))
	assert.ErrorIs(t, c.AppendSwitch("y", ""), ErrProxied)
}
