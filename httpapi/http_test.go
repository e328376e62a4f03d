package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bsv-blockchain/utxoledger/errors"
	"github.com/bsv-blockchain/utxoledger/model"
	"github.com/bsv-blockchain/utxoledger/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine is a hand-written test double for the Engine interface,
// configurable per test without a real store or index.
type fakeEngine struct {
	submitHeight uint64
	submitErr    error

	rollbackHeight uint64
	rollbackErr    error

	resetErr error

	balances map[string]int64

	blocks []model.BlockSummary
	height uint64

	currentHeight uint64

	healthErr error
}

func (f *fakeEngine) SubmitBlock(_ context.Context, _ model.Block) (uint64, error) {
	return f.submitHeight, f.submitErr
}

func (f *fakeEngine) Rollback(_ context.Context, _ uint64) (uint64, error) {
	return f.rollbackHeight, f.rollbackErr
}

func (f *fakeEngine) Reset(_ context.Context) error {
	return f.resetErr
}

func (f *fakeEngine) Balance(address string) int64 {
	return f.balances[address]
}

func (f *fakeEngine) ListBlocks() ([]model.BlockSummary, uint64) {
	return f.blocks, f.height
}

func (f *fakeEngine) ResetCounts() (blocks, utxos, balances int) {
	return 0, 0, 0
}

func (f *fakeEngine) CurrentHeight() uint64 {
	return f.currentHeight
}

func (f *fakeEngine) Health(_ context.Context) error {
	return f.healthErr
}

func newTestHTTP(eng Engine) *HTTP {
	return New(ulogger.New("test", ulogger.WithWriter(io.Discard)), eng, ":0", false)
}

func TestWelcome(t *testing.T) {
	h := newTestHTTP(&fakeEngine{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"welcome":"in blockchain"}`, rec.Body.String())
}

func TestSubmitBlockSuccess(t *testing.T) {
	h := newTestHTTP(&fakeEngine{submitHeight: 1})

	body := `{"id":"abc","height":1,"transactions":[]}`
	req := httptest.NewRequest(http.MethodPost, "/blocks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"Block accepted"`)
	assert.Contains(t, rec.Body.String(), `"height":1`)
}

func TestSubmitBlockMalformedBody(t *testing.T) {
	h := newTestHTTP(&fakeEngine{})

	req := httptest.NewRequest(http.MethodPost, "/blocks", bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitBlockValidationError(t *testing.T) {
	h := newTestHTTP(&fakeEngine{submitErr: errors.NewInvalidHeightError("block height 5 does not follow current height 0")})

	body := `{"id":"abc","height":5,"transactions":[]}`
	req := httptest.NewRequest(http.MethodPost, "/blocks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not follow current height")
}

func TestSubmitBlockStoreError(t *testing.T) {
	h := newTestHTTP(&fakeEngine{submitErr: errors.NewStoreError("connection refused")})

	body := `{"id":"abc","height":1,"transactions":[]}`
	req := httptest.NewRequest(http.MethodPost, "/blocks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBalance(t *testing.T) {
	h := newTestHTTP(&fakeEngine{balances: map[string]int64{"alice": 42}})

	req := httptest.NewRequest(http.MethodGet, "/balance/alice", nil)
	rec := httptest.NewRecorder()

	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance":42`)
}

func TestBalanceUnknownAddressIsZero(t *testing.T) {
	h := newTestHTTP(&fakeEngine{balances: map[string]int64{}})

	req := httptest.NewRequest(http.MethodGet, "/balance/nobody", nil)
	rec := httptest.NewRecorder()

	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance":0`)
}

func TestRollbackSuccess(t *testing.T) {
	h := newTestHTTP(&fakeEngine{rollbackHeight: 3})

	req := httptest.NewRequest(http.MethodPost, "/rollback?height=3", nil)
	rec := httptest.NewRecorder()

	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"Rollback successful"`)
	assert.Contains(t, rec.Body.String(), `"height":3`)
}

func TestRollbackMissingHeight(t *testing.T) {
	h := newTestHTTP(&fakeEngine{})

	req := httptest.NewRequest(http.MethodPost, "/rollback", nil)
	rec := httptest.NewRecorder()

	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRollbackTargetAboveHead(t *testing.T) {
	h := newTestHTTP(&fakeEngine{rollbackErr: errors.NewTargetAboveHeadError("rollback target 9 is above current height 3")})

	req := httptest.NewRequest(http.MethodPost, "/rollback?height=9", nil)
	rec := httptest.NewRecorder()

	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReset(t *testing.T) {
	h := newTestHTTP(&fakeEngine{})

	req := httptest.NewRequest(http.MethodPost, "/reset", nil)
	rec := httptest.NewRecorder()

	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Reset successful","currentHeight":0,"blocksCount":0,"utxosCount":0,"balancesCount":0}`, rec.Body.String())
}

func TestListBlocks(t *testing.T) {
	h := newTestHTTP(&fakeEngine{
		blocks: []model.BlockSummary{{ID: "a", Height: 1}, {ID: "b", Height: 2}},
		height: 2,
	})

	req := httptest.NewRequest(http.MethodGet, "/blocks", nil)
	rec := httptest.NewRecorder()

	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)
	assert.Contains(t, rec.Body.String(), `"currentHeight":2`)
}

func TestHealthOK(t *testing.T) {
	h := newTestHTTP(&fakeEngine{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthUnavailable(t *testing.T) {
	h := newTestHTTP(&fakeEngine{healthErr: errors.NewStoreError("db unreachable")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthHandlerLiveness(t *testing.T) {
	h := newTestHTTP(&fakeEngine{healthErr: errors.NewStoreError("db unreachable")})

	status, _, err := h.Health(context.Background(), true)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}

func TestHealthHandlerReadiness(t *testing.T) {
	h := newTestHTTP(&fakeEngine{healthErr: errors.NewStoreError("db unreachable")})

	status, _, err := h.Health(context.Background(), false)

	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}
