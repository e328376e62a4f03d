package ulogger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFileLoggerWritesToRotatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.log")

	log := NewFileLogger("svc", WithFile(path), WithLevel("info"))
	defer log.Close()

	log.Infof("hello file logger")

	require.FileExists(t, path)
}

func TestNewFileLoggerWithoutPathFallsBackToZeroLogger(t *testing.T) {
	log := NewFileLogger("svc")
	defer log.Close()

	require.Nil(t, log.r)
}

func TestFileLoggerNewDerivesChildSharingRotator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.log")

	log := NewFileLogger("svc", WithFile(path))
	defer log.Close()

	child := log.New("child")
	childFileLogger, ok := child.(*FileLogger)
	require.True(t, ok)
	require.Same(t, log.r, childFileLogger.r)
}
