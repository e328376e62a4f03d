package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFormatsMessage(t *testing.T) {
	err := New(KindInvalidHeight, "expected height %d, got %d", 1, 2)
	require.Equal(t, KindInvalidHeight, err.Kind())
	require.Equal(t, "expected height 1, got 2", err.Message())
	require.Equal(t, "InvalidHeight: expected height 1, got 2", err.Error())
}

func TestWrapIncludesUnderlyingError(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(KindStoreError, cause, "failed to open store")

	require.Equal(t, cause, err.Unwrap())
	require.Contains(t, err.Error(), "connection refused")
}

func TestIsMatchesByKindOnly(t *testing.T) {
	a := New(KindInputNotFound, "input not found: %s", "tx1:0")
	b := New(KindInputNotFound, "a different message")

	require.True(t, stderrors.Is(a, b))
	require.False(t, stderrors.Is(a, New(KindValueMismatch, "x")))
}

func TestKindOfUnwrapsThroughFmtErrorf(t *testing.T) {
	err := fmt.Errorf("rollback: %w", New(KindTargetAboveHead, "target above head"))
	require.Equal(t, KindTargetAboveHead, KindOf(err))
	require.Equal(t, KindUnknown, KindOf(stderrors.New("plain")))
}

func TestNilErrorMethods(t *testing.T) {
	var err *Error

	require.Equal(t, "<nil>", err.Error())
	require.Equal(t, KindUnknown, err.Kind())
	require.Equal(t, "", err.Message())
	require.Nil(t, err.Data())
	require.Nil(t, err.Unwrap())
}
