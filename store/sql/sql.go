// Package sql implements store.Store over database/sql, supporting both
// postgres (github.com/lib/pq) and sqlite (modernc.org/sqlite, pure Go, no
// CGO) behind the same five-relation schema, selected by the scheme of the
// store's DATABASE_URL.
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	_ "modernc.org/sqlite"

	"github.com/bsv-blockchain/utxoledger/errors"
	"github.com/bsv-blockchain/utxoledger/ulogger"
	"github.com/bsv-blockchain/utxoledger/util/retry"
)

// Engine names the SQL dialect a Store was opened against.
type Engine string

const (
	Postgres Engine = "postgres"
	SQLite   Engine = "sqlite"
)

var (
	prometheusApplyBlock = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utxoledger_sql_apply_block_total",
		Help: "Number of blocks applied to the SQL store.",
	})
	prometheusRewind = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utxoledger_sql_rewind_total",
		Help: "Number of rewinds performed against the SQL store.",
	})
	prometheusReset = promauto.NewCounter(prometheus.CounterOpts{
		Name: "utxoledger_sql_reset_total",
		Help: "Number of resets performed against the SQL store.",
	})
	prometheusErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "utxoledger_sql_errors_total",
		Help: "Number of SQL store errors, by operation.",
	}, []string{"op"})
)

// Store implements store.Store over database/sql.
type Store struct {
	logger ulogger.Logger
	db     *sql.DB
	engine Engine
}

// Options tunes the underlying connection pool.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	DataFolder   string

	// ConnectRetries is the total number of postgres connection attempts
	// New makes before giving up. Zero or less means one attempt.
	ConnectRetries int
}

// New opens a Store for dbURL, creating its schema if necessary. Supported
// schemes are "postgres" and "sqlite". A "sqlite" URL opens the file
// "<name>.db" under opts.DataFolder, where <name> is the URL path without
// its leading slash, or "ledger" if the path is empty.
func New(logger ulogger.Logger, dbURL *url.URL, opts Options) (*Store, error) {
	var (
		db     *sql.DB
		engine Engine
		err    error
	)

	switch dbURL.Scheme {
	case "postgres":
		db, err = openPostgresWithRetry(logger, dbURL, opts.ConnectRetries)
		engine = Postgres
	case "sqlite":
		db, err = openSQLite(dbURL, opts.DataFolder)
		engine = SQLite
	default:
		return nil, errors.NewConfigurationError("store/sql: unsupported scheme %q", dbURL.Scheme)
	}

	if err != nil {
		return nil, errors.WrapStoreError(err, "failed to open %s store", dbURL.Scheme)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}

	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}

	s := &Store{logger: logger, db: db, engine: engine}

	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, errors.WrapStoreError(err, "failed to create %s schema", dbURL.Scheme)
	}

	logger.Infof("store/sql: opened %s store", engine)

	return s, nil
}

func openPostgres(dbURL *url.URL) (*sql.DB, error) {
	dbUser := ""
	dbPassword := ""

	if dbURL.User != nil {
		dbUser = dbURL.User.Username()
		dbPassword, _ = dbURL.User.Password()
	}

	sslMode := "disable"
	if v := dbURL.Query().Get("sslmode"); v != "" {
		sslMode = v
	}

	dbName := ""
	if len(dbURL.Path) > 1 {
		dbName = dbURL.Path[1:]
	}

	port := dbURL.Port()

	dsn := fmt.Sprintf("user=%s password=%s dbname=%s sslmode=%s host=%s port=%s",
		dbUser, dbPassword, dbName, sslMode, dbURL.Hostname(), port)

	return sql.Open("postgres", dsn)
}

// openPostgresWithRetry opens and pings a postgres connection, retrying on
// failure. Postgres may still be starting up (e.g. in a freshly launched
// container), so a single Ping failure isn't fatal on its own.
func openPostgresWithRetry(logger ulogger.Logger, dbURL *url.URL, retries int) (*sql.DB, error) {
	if retries < 1 {
		retries = 1
	}

	return retry.WithLogger(context.Background(), logger, retries, 1, 500*time.Millisecond, "connecting to postgres", func() (*sql.DB, error) {
		db, err := openPostgres(dbURL)
		if err != nil {
			return nil, err
		}

		if pingErr := db.Ping(); pingErr != nil {
			_ = db.Close()
			return nil, pingErr
		}

		return db, nil
	})
}

func openSQLite(dbURL *url.URL, dataFolder string) (*sql.DB, error) {
	if dataFolder == "" {
		dataFolder = "./data"
	}

	if err := os.MkdirAll(dataFolder, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data folder %s: %w", dataFolder, err)
	}

	dbName := "ledger"
	if len(dbURL.Path) > 1 {
		dbName = dbURL.Path[1:]
	}

	filename, err := filepath.Abs(filepath.Join(dataFolder, dbName+".db"))
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("%s?cache=shared&_pragma=busy_timeout=5000&_pragma=journal_mode=WAL&_pragma=foreign_keys=ON", filename)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// sqlite only tolerates one writer at a time; the engine already
	// serializes mutating calls, but a single connection keeps concurrent
	// reads from racing a writer transaction under WAL too.
	db.SetMaxOpenConns(1)

	return db, nil
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS blocks (
			id     TEXT PRIMARY KEY,
			height BIGINT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id       TEXT PRIMARY KEY,
			block_id TEXT NOT NULL REFERENCES blocks(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS inputs (
			tx_id            TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
			spent_utxo_txid  TEXT NOT NULL,
			spent_utxo_index BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outputs (
			txid    TEXT NOT NULL,
			idx     BIGINT NOT NULL,
			address TEXT NOT NULL,
			value   BIGINT NOT NULL,
			is_spent BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (txid, idx)
		)`,
		`CREATE TABLE IF NOT EXISTS balances (
			address TEXT PRIMARY KEY,
			balance BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_block_id ON transactions(block_id)`,
		`CREATE INDEX IF NOT EXISTS idx_inputs_tx_id ON inputs(tx_id)`,
		`CREATE INDEX IF NOT EXISTS idx_inputs_spent_utxo ON inputs(spent_utxo_txid, spent_utxo_index)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("could not execute schema statement %q: %w", stmt, err)
		}
	}

	return nil
}

// placeholder renders the i'th (1-based) bind parameter in this store's
// dialect: "$1", "$2", ... for postgres, "?" for sqlite.
func (s *Store) placeholder(i int) string {
	if s.engine == Postgres {
		return "$" + strconv.Itoa(i)
	}

	return "?"
}

func (s *Store) Health(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return errors.WrapStoreError(err, "store/sql: health check failed")
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
