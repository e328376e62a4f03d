// Command utxoledger runs the UTXO ledger indexer as a standalone HTTP
// service: resolve settings, build a logger, hand both to a daemon, and
// run it until shutdown.
package main

import (
	"fmt"
	"os"

	"github.com/bsv-blockchain/utxoledger/daemon"
	"github.com/bsv-blockchain/utxoledger/settings"
	"github.com/bsv-blockchain/utxoledger/ulogger"
)

func main() {
	cfg, err := settings.NewSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "utxoledger: %s\n", err)
		os.Exit(1)
	}

	logger := ulogger.New("utxoledger", ulogger.WithLevel(cfg.LogLevel))

	d, err := daemon.New(cfg, daemon.WithLoggerFactory(func(serviceName string) ulogger.Logger {
		return ulogger.New(serviceName, ulogger.WithLevel(cfg.LogLevel))
	}))
	if err != nil {
		logger.Errorf("failed to start: %s", err)
		os.Exit(1)
	}

	defer func() {
		if closeErr := d.Close(); closeErr != nil {
			logger.Errorf("failed to close store: %s", closeErr)
		}
	}()

	if err := d.Run(); err != nil {
		logger.Errorf("daemon exited with error: %s", err)
		os.Exit(1)
	}
}
