package ulogger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToZeroLogger(t *testing.T) {
	var buf bytes.Buffer

	log := New("svc", WithWriter(&buf), WithLevel("debug"))
	log.Infof("hello %s", "world")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "hello world", line["message"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	log := New("svc", WithWriter(&buf), WithLevel("warn"))
	log.Infof("should be dropped")
	log.Warnf("should appear")

	out := buf.String()
	require.NotContains(t, out, "should be dropped")
	require.Contains(t, out, "should appear")
}

func TestSetLogLevelChangesFiltering(t *testing.T) {
	var buf bytes.Buffer

	log := New("svc", WithWriter(&buf), WithLevel("error"))
	log.Infof("dropped before")
	log.SetLogLevel("info")
	log.Infof("kept after")

	out := buf.String()
	require.NotContains(t, out, "dropped before")
	require.Contains(t, out, "kept after")
}

func TestLogLevelReportsIntLevel(t *testing.T) {
	var buf bytes.Buffer

	log := New("svc", WithWriter(&buf), WithLevel("debug"))
	require.Equal(t, 0, log.LogLevel())

	log.SetLogLevel("error")
	require.Equal(t, 3, log.LogLevel())
}

func TestNewChildLoggerInheritsWriterAndLevel(t *testing.T) {
	var buf bytes.Buffer

	parent := New("parent", WithWriter(&buf), WithLevel("warn"))
	child := parent.New("child")

	child.Infof("dropped, inherited warn level")
	child.Warnf("kept")

	out := buf.String()
	require.NotContains(t, out, "dropped")
	require.Contains(t, out, "kept")
}

func TestColorizeRespectsNoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	require.Equal(t, "plain", colorize("plain", colorRed, false))
}

func TestColorizeWrapsWhenEnabled(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	colored := colorize("x", colorRed, false)
	require.True(t, strings.HasPrefix(colored, "\x1b["))
}
