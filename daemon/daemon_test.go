package daemon

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/bsv-blockchain/utxoledger/settings"
	"github.com/stretchr/testify/require"
)

func testSettings(t *testing.T, scheme string) *settings.Settings {
	dir := t.TempDir()

	dbURL, err := url.Parse(scheme + ":///" + t.Name())
	require.NoError(t, err)

	return &settings.Settings{
		DatabaseURL:          dbURL,
		HTTPListenAddress:    "127.0.0.1:0",
		MetricsListenAddress: "",
		LogLevel:             "error",
		DataFolder:           dir,
		DB: settings.DBSettings{
			MaxOpenConns: 5,
			MaxIdleConns: 1,
		},
	}
}

func TestNewOpensSQLiteStoreAndHydratesEngine(t *testing.T) {
	cfg := testSettings(t, "sqlite")

	d, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, d.Engine)
	require.Equal(t, uint64(0), d.Engine.CurrentHeight())

	require.NoError(t, d.Close())
}

func TestNewOpensLevelDBStore(t *testing.T) {
	dir := t.TempDir()

	dbURL, err := url.Parse("leveldb://" + dir + "/ledger")
	require.NoError(t, err)

	cfg := testSettings(t, "sqlite")
	cfg.DatabaseURL = dbURL

	d, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, d.Engine)

	require.NoError(t, d.Close())
}

func TestNewRejectsUnsupportedScheme(t *testing.T) {
	cfg := testSettings(t, "mongodb")

	_, err := New(cfg)
	require.Error(t, err)
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := testSettings(t, "sqlite")

	d, err := New(cfg, WithContext(ctx))
	require.NoError(t, err)

	done := make(chan error, 1)

	go func() {
		done <- d.Run()
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	require.NoError(t, d.Close())
}
