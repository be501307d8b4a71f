package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStderrLogger_SilentUntilEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)

	l.Info("hello")
	assert.Empty(t, buf.String(), "a freshly created logger must not write until enabled")

	l.Enable()
	l.Info("hello again")
	assert.Contains(t, buf.String(), "hello again")
}

func TestStderrLogger_SetEnabledToggles(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.Enable()

	l.Info("visible")
	l.SetEnabled(false)
	l.Info("hidden")

	assert.Contains(t, buf.String(), "visible")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestSetVerbose_TogglesPackageDefaultLogger(t *testing.T) {
	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	SetDefault(l)

	SetVerbose(false)
	Info("should not appear")
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Info("should appear")
	assert.Contains(t, buf.String(), "should appear")
}
