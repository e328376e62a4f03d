// Command utxoledgerctl is a thin HTTP client for a running utxoledger
// server: one config struct per subcommand, all registered on a shared
// go-flags parser.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	flags "github.com/jessevdk/go-flags"
)

const (
	submitBlockSubCmd = "submit-block"
	balanceSubCmd     = "balance"
	rollbackSubCmd    = "rollback"
	resetSubCmd       = "reset"
	blocksSubCmd      = "blocks"
)

type globalConfig struct {
	Server string `long:"server" short:"s" description:"utxoledger server base URL" default:"http://localhost:3000"`
}

type submitBlockConfig struct {
	globalConfig
	File string `long:"file" short:"f" description:"path to a JSON block file" required:"true"`
}

type balanceConfig struct {
	globalConfig
	Address string `long:"address" short:"a" description:"address to look up" required:"true"`
}

type rollbackConfig struct {
	globalConfig
	Height uint64 `long:"height" short:"h" description:"target height to roll back to" required:"true"`
}

type resetConfig struct {
	globalConfig
}

type blocksConfig struct {
	globalConfig
}

func main() {
	globalCfg := &globalConfig{}
	parser := flags.NewParser(globalCfg, flags.Default)

	submitBlockCfg := &submitBlockConfig{}
	parser.AddCommand(submitBlockSubCmd, "Submit a block", "Submit a block described by a JSON file to the ledger", submitBlockCfg)

	balanceCfg := &balanceConfig{}
	parser.AddCommand(balanceSubCmd, "Look up a balance", "Look up an address's current balance", balanceCfg)

	rollbackCfg := &rollbackConfig{}
	parser.AddCommand(rollbackSubCmd, "Roll back the chain", "Undo every block above a target height", rollbackCfg)

	resetCfg := &resetConfig{}
	parser.AddCommand(resetSubCmd, "Reset to genesis", "Clear the ledger back to an empty chain", resetCfg)

	blocksCfg := &blocksConfig{}
	parser.AddCommand(blocksSubCmd, "List blocks", "List every accepted block by height", blocksCfg)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var runErr error

	switch parser.Active.Name {
	case submitBlockSubCmd:
		runErr = runSubmitBlock(submitBlockCfg)
	case balanceSubCmd:
		runErr = runBalance(balanceCfg)
	case rollbackSubCmd:
		runErr = runRollback(rollbackCfg)
	case resetSubCmd:
		runErr = runReset(resetCfg)
	case blocksSubCmd:
		runErr = runBlocks(blocksCfg)
	default:
		fmt.Fprintln(os.Stderr, "no subcommand given, see --help")
		os.Exit(1)
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func runSubmitBlock(cfg *submitBlockConfig) error {
	body, err := os.ReadFile(cfg.File)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.File, err)
	}

	resp, err := httpClient.Post(cfg.Server+"/blocks", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}

	return printResponse(resp)
}

func runBalance(cfg *balanceConfig) error {
	resp, err := httpClient.Get(cfg.Server + "/balance/" + url.PathEscape(cfg.Address))
	if err != nil {
		return err
	}

	return printResponse(resp)
}

func runRollback(cfg *rollbackConfig) error {
	resp, err := httpClient.Post(cfg.Server+"/rollback?height="+strconv.FormatUint(cfg.Height, 10), "application/json", nil)
	if err != nil {
		return err
	}

	return printResponse(resp)
}

func runReset(cfg *resetConfig) error {
	resp, err := httpClient.Post(cfg.Server+"/reset", "application/json", nil)
	if err != nil {
		return err
	}

	return printResponse(resp)
}

func runBlocks(cfg *blocksConfig) error {
	resp, err := httpClient.Get(cfg.Server + "/blocks")
	if err != nil {
		return err
	}

	return printResponse(resp)
}

// printResponse pretty-prints a JSON response body, or returns an error
// for a non-2xx status.
func printResponse(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Write(body)
	}

	fmt.Println(pretty.String())

	if resp.StatusCode >= 300 {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	return nil
}
