package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogsAtConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", &buf)
	l.Infof("hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")

	buf.Reset()
	l.Debugf("should not appear")
	assert.Empty(t, buf.String())
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	base := New("info", &buf)
	child := base.WithFields(map[string]interface{}{"query": "RETURN 1"})

	child.Infof("ran")
	assert.Contains(t, buf.String(), "query=\"RETURN 1\"")

	buf.Reset()
	base.Infof("ran again")
	assert.NotContains(t, buf.String(), "query=")
}

func TestDiscardSuppressesOutput(t *testing.T) {
	l := Discard()
	l.Errorf("this goes nowhere")
	assert.NotNil(t, l.Entry())
}
