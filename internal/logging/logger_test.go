package logging

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultsInstanceID(t *testing.T) {
	os.Unsetenv("INSTANCE_ID")
	l := New("adapters.ebay")
	assert.Equal(t, "adapters.ebay", l.Component)
	assert.Equal(t, "unknown", l.InstanceID)
}

func TestNewReadsInstanceID(t *testing.T) {
	os.Setenv("INSTANCE_ID", "node-7")
	defer os.Unsetenv("INSTANCE_ID")
	l := New("valuation")
	assert.Equal(t, "node-7", l.InstanceID)
}

func TestLoggerDoesNotPanicOnNilFields(t *testing.T) {
	l := New("test")
	assert.NotPanics(t, func() {
		l.Info("listing-1", "req-1", "hello", nil)
		l.Warn("", "", "hi", nil)
		l.Error("", "", "boom", assert.AnError, nil)
		l.Debug("", "", "dbg", map[string]interface{}{"k": "v"})
	})
}
