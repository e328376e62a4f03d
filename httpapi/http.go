// Package httpapi serves the ledger's query/submission surface over HTTP,
// implemented with Echo: a middleware stack (Recover, CORS, Gzip, an
// optional debug request logger) wrapped around a small route table for
// blocks and balances.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bsv-blockchain/utxoledger/errors"
	"github.com/bsv-blockchain/utxoledger/model"
	"github.com/bsv-blockchain/utxoledger/ulogger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Engine is the subset of *engine.Engine this package depends on. Defined
// as an interface so handler tests can substitute a fake without standing
// up a real store.
type Engine interface {
	SubmitBlock(ctx context.Context, b model.Block) (uint64, error)
	Rollback(ctx context.Context, targetHeight uint64) (uint64, error)
	Reset(ctx context.Context) error
	Balance(address string) int64
	ListBlocks() ([]model.BlockSummary, uint64)
	ResetCounts() (blocks, utxos, balances int)
	CurrentHeight() uint64
	Health(ctx context.Context) error
}

// HTTP is the ledger's Echo-based HTTP server.
type HTTP struct {
	logger ulogger.Logger
	engine Engine
	e      *echo.Echo
	addr   string
	debug  bool
}

// New builds and wires the Echo server listening on addr. The server is
// not started until Start is called, so New can be used in tests that
// only need the route table.
func New(logger ulogger.Logger, eng Engine, addr string, debug bool) *HTTP {
	initPrometheusMetrics()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = debug

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) { return true, nil },
		AllowMethods:    []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders:    []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(middleware.Gzip())

	h := &HTTP{
		logger: logger,
		engine: eng,
		e:      e,
		addr:   addr,
		debug:  debug,
	}

	if debug {
		e.Use(customLoggerMiddleware(logger))
	}

	h.routes()

	return h
}

func (h *HTTP) routes() {
	h.e.GET("/", h.welcome)
	h.e.GET("/health", h.health)
	h.e.POST("/blocks", h.submitBlock)
	h.e.GET("/blocks", h.listBlocks)
	h.e.GET("/balance/:address", h.balance)
	h.e.POST("/rollback", h.rollback)
	h.e.POST("/reset", h.reset)
}

// Init satisfies servicemanager.Service; there is nothing to do before
// Start since routes are registered in New.
func (h *HTTP) Init(_ context.Context) error {
	return nil
}

// Start runs the HTTP server until ctx is canceled, then shuts it down
// gracefully within 5 seconds. It satisfies servicemanager.Service.
func (h *HTTP) Start(ctx context.Context, readyCh chan struct{}) error {
	go func() {
		<-ctx.Done()

		h.logger.Infof("http surface shutting down")

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.e.Shutdown(stopCtx); err != nil {
			h.logger.Errorf("http surface shutdown error: %s", err)
		}
	}()

	close(readyCh)

	err := h.e.Start(h.addr)
	if err != nil && err != http.ErrServerClosed {
		return errors.NewServiceError("http surface failed: %s", err)
	}

	return nil
}

// Stop shuts the server down within ctx's deadline.
func (h *HTTP) Stop(ctx context.Context) error {
	return h.e.Shutdown(ctx)
}

// Health satisfies servicemanager.Service, reporting the underlying
// store's health.
func (h *HTTP) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "alive", nil
	}

	if err := h.engine.Health(ctx); err != nil {
		return http.StatusServiceUnavailable, err.Error(), err
	}

	return http.StatusOK, "ok", nil
}

func (h *HTTP) welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"welcome": "in blockchain"})
}

func (h *HTTP) health(c echo.Context) error {
	if err := h.engine.Health(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type submitBlockResponse struct {
	Status string `json:"status"`
	Height uint64 `json:"height"`
}

func (h *HTTP) submitBlock(c echo.Context) error {
	var b model.Block

	if err := c.Bind(&b); err != nil {
		prometheusHTTPSubmitBlock.WithLabelValues("400").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed block body: " + err.Error()})
	}

	height, err := h.engine.SubmitBlock(c.Request().Context(), b)
	if err != nil {
		return h.respondError(c, prometheusHTTPSubmitBlock, err)
	}

	prometheusHTTPSubmitBlock.WithLabelValues("200").Inc()

	return c.JSON(http.StatusOK, submitBlockResponse{Status: "Block accepted", Height: height})
}

type balanceResponse struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

func (h *HTTP) balance(c echo.Context) error {
	address := c.Param("address")

	balance := h.engine.Balance(address)

	prometheusHTTPBalance.WithLabelValues("200").Inc()

	return c.JSON(http.StatusOK, balanceResponse{Address: address, Balance: balance})
}

type rollbackResponse struct {
	Status string `json:"status"`
	Height uint64 `json:"height"`
}

func (h *HTTP) rollback(c echo.Context) error {
	raw := c.QueryParam("height")

	height, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		prometheusHTTPRollback.WithLabelValues("400").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "height must be a non-negative integer: " + raw})
	}

	newHeight, err := h.engine.Rollback(c.Request().Context(), height)
	if err != nil {
		return h.respondError(c, prometheusHTTPRollback, err)
	}

	prometheusHTTPRollback.WithLabelValues("200").Inc()

	return c.JSON(http.StatusOK, rollbackResponse{Status: "Rollback successful", Height: newHeight})
}

type resetResponse struct {
	Status        string `json:"status"`
	CurrentHeight uint64 `json:"currentHeight"`
	BlocksCount   int    `json:"blocksCount"`
	UtxosCount    int    `json:"utxosCount"`
	BalancesCount int    `json:"balancesCount"`
}

func (h *HTTP) reset(c echo.Context) error {
	if err := h.engine.Reset(c.Request().Context()); err != nil {
		return h.respondError(c, prometheusHTTPReset, err)
	}

	blocks, utxos, balances := h.engine.ResetCounts()

	prometheusHTTPReset.WithLabelValues("200").Inc()

	return c.JSON(http.StatusOK, resetResponse{
		Status:        "Reset successful",
		CurrentHeight: h.engine.CurrentHeight(),
		BlocksCount:   blocks,
		UtxosCount:    utxos,
		BalancesCount: balances,
	})
}

type listBlocksResponse struct {
	Blocks        []model.BlockSummary `json:"blocks"`
	Count         int                  `json:"count"`
	CurrentHeight uint64               `json:"currentHeight"`
}

func (h *HTTP) listBlocks(c echo.Context) error {
	blocks, height := h.engine.ListBlocks()

	prometheusHTTPListBlocks.WithLabelValues("200").Inc()

	return c.JSON(http.StatusOK, listBlocksResponse{Blocks: blocks, Count: len(blocks), CurrentHeight: height})
}

// respondError maps err's Kind to an HTTP status and JSON body via
// errorResponse: validation, configuration and not-found kinds are client
// mistakes (400), every other error is a server failure (500).
func (h *HTTP) respondError(c echo.Context, metric *prometheus.CounterVec, err error) error {
	status, body := errorResponse(err)

	metric.WithLabelValues(strconv.Itoa(status)).Inc()

	return c.JSON(status, body)
}

// customLoggerMiddleware logs each HTTP request through the ledger's logger.
func customLoggerMiddleware(logger ulogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start)

			logger.Infof("http request: method=%s uri=%s status=%d duration=%s err=%v",
				c.Request().Method, c.Request().RequestURI, status, duration, err)

			return err
		}
	}
}
