// Package settings resolves the ledger's startup configuration from
// environment variables via gocore.Config(), the same getter pattern the
// teacher uses (settings.NewSettings backed by getString/getInt/getBool),
// trimmed down to the handful of values this service actually needs.
package settings

import (
	"net/url"

	"github.com/bsv-blockchain/utxoledger/errors"
)

// Settings is the ledger's resolved configuration.
type Settings struct {
	// DatabaseURL selects the persistent store backend and its location.
	// Supported schemes: postgres://, sqlite://, leveldb://.
	DatabaseURL *url.URL

	// HTTPListenAddress is the address the query/submission HTTP surface
	// binds to.
	HTTPListenAddress string

	// MetricsListenAddress is the address the Prometheus /metrics
	// endpoint binds to. Empty disables the metrics server.
	MetricsListenAddress string

	// LogLevel is the initial level passed to ulogger.New.
	LogLevel string

	// DataFolder is the directory the sqlite backend places its database
	// file in. The leveldb backend takes its directory from DatabaseURL's
	// path and does not use it.
	DataFolder string

	DB DBSettings
}

// DBSettings tunes the database/sql connection pool shared by the
// postgres and sqlite store backends.
type DBSettings struct {
	MaxOpenConns int
	MaxIdleConns int

	// ConnectRetries is the total number of postgres connection attempts
	// store/sql.New makes at startup before giving up.
	ConnectRetries int
}

// NewSettings resolves Settings from the environment. It returns an error,
// rather than panicking, because a missing DATABASE_URL is an operator
// mistake the daemon should report cleanly, not a programming error.
func NewSettings() (*Settings, error) {
	rawURL := getString("DATABASE_URL", "")
	if rawURL == "" {
		return nil, errors.NewConfigurationError("DATABASE_URL is required")
	}

	dbURL := getURL("DATABASE_URL", rawURL)
	if dbURL == nil {
		return nil, errors.NewConfigurationError("DATABASE_URL is not a valid URL: %s", rawURL)
	}

	return &Settings{
		DatabaseURL:          dbURL,
		HTTPListenAddress:    getString("HTTP_LISTEN_ADDRESS", ":3000"),
		MetricsListenAddress: getString("METRICS_LISTEN_ADDRESS", ""),
		LogLevel:             getString("LOG_LEVEL", "info"),
		DataFolder:           getString("DATA_FOLDER", "./data"),
		DB: DBSettings{
			MaxOpenConns:   getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getInt("DB_MAX_IDLE_CONNS", 5),
			ConnectRetries: getInt("DB_CONNECT_RETRIES", 5),
		},
	}, nil
}
