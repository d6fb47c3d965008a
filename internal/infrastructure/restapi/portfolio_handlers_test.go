package restapi

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio_tracker/internal/app/service"
	"portfolio_tracker/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type stubCatalog struct {
	networks []entity.NetworkDefinition
	assets   []entity.AssetDescriptor
}

func (c *stubCatalog) Networks() []entity.NetworkDefinition { return c.networks }
func (c *stubCatalog) Assets() []entity.AssetDescriptor     { return c.assets }

func (c *stubCatalog) AssetsByChainID(chainID uint64) []entity.AssetDescriptor {
	var out []entity.AssetDescriptor
	for _, a := range c.assets {
		if a.ChainID == chainID {
			out = append(out, a)
		}
	}
	return out
}

func (c *stubCatalog) PriceIDs() []string {
	var out []string
	for _, a := range c.assets {
		out = append(out, a.PriceID)
	}
	return out
}

type stubPortfolioService struct {
	view      entity.PortfolioView
	refreshes atomic.Int64
}

func (s *stubPortfolioService) Snapshot() entity.PortfolioView { return s.view }

func (s *stubPortfolioService) Refresh(context.Context) { s.refreshes.Add(1) }

func (s *stubPortfolioService) Fetch(_ context.Context, ownerAddress string) entity.PortfolioView {
	view := s.view
	view.OwnerAddress = ownerAddress
	return view
}

func testView(t *testing.T) entity.PortfolioView {
	t.Helper()
	balances := []entity.RawBalance{
		{
			Asset:     entity.AssetDescriptor{ChainID: 1, Symbol: "ETH", Name: "Ether", Decimals: 18, PriceID: "ethereum"},
			Amount:    big.NewInt(2e18),
			Formatted: "2",
			State:     entity.FetchStateReady,
		},
		{
			Asset:     entity.AssetDescriptor{ChainID: 137, ContractAddress: "0x01", Symbol: "USDC", Name: "USD Coin", Decimals: 6, PriceID: "usd-coin"},
			Amount:    big.NewInt(10_000_000),
			Formatted: "10",
			State:     entity.FetchStateReady,
		},
	}
	prices := entity.PriceMap{
		"ethereum": {PriceID: "ethereum", PriceUSD: 2000, Change24hPct: 1.5},
		"usd-coin": {PriceID: "usd-coin", PriceUSD: 1, Change24hPct: -0.01},
	}
	entries, summary := service.Merge(balances, prices)
	return entity.PortfolioView{
		OwnerAddress: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		Entries:      entries,
		Summary:      summary,
		RefreshedAt:  time.Now(),
	}
}

func testCatalog() *stubCatalog {
	return &stubCatalog{
		networks: []entity.NetworkDefinition{
			{ChainID: 1, Name: "Ethereum", Identifier: "ethereum", NativeSymbol: "ETH"},
			{ChainID: 137, Name: "Polygon", Identifier: "polygon", NativeSymbol: "MATIC"},
		},
		assets: []entity.AssetDescriptor{
			{ChainID: 1, Symbol: "ETH", PriceID: "ethereum"},
			{ChainID: 137, ContractAddress: "0x01", Symbol: "USDC", PriceID: "usd-coin"},
		},
	}
}

func setup(t *testing.T) (*stubPortfolioService, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := &stubPortfolioService{view: testView(t)}
	handler := NewPortfolioHandler(svc, testCatalog(), nopLogger{})
	return svc, SetupRouter(handler)
}

func doRequest(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetPortfolioHandler(t *testing.T) {
	_, router := setup(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/portfolio")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp PortfolioResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(resp.Entries))
	}
	// ETH at $2000 x 2 sorts above USDC at $1 x 10.
	if resp.Entries[0].Asset.Symbol != "ETH" {
		t.Errorf("expected ETH first, got %s", resp.Entries[0].Asset.Symbol)
	}
	if resp.Entries[0].ValueDisplay != "$4,000.00" {
		t.Errorf("unexpected value display %q", resp.Entries[0].ValueDisplay)
	}
	if resp.Entries[0].ChangeDisplay != "+1.50%" {
		t.Errorf("unexpected change display %q", resp.Entries[0].ChangeDisplay)
	}
	if resp.TotalDisplay != "$4,010.00" {
		t.Errorf("unexpected total display %q", resp.TotalDisplay)
	}
	if resp.OverallLoading || resp.OverallError {
		t.Errorf("unexpected state flags: loading=%v error=%v", resp.OverallLoading, resp.OverallError)
	}
}

func TestGetPortfolioHandler_NetworkFilter(t *testing.T) {
	_, router := setup(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/portfolio?network=polygon")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp PortfolioResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Entries) != 1 || resp.Entries[0].Asset.Symbol != "USDC" {
		t.Fatalf("expected only the USDC entry, got %+v", resp.Entries)
	}
	// Summary recomputed over the filtered set.
	if resp.Summary.TotalValueUSD != 10 {
		t.Errorf("expected filtered total 10, got %f", resp.Summary.TotalValueUSD)
	}
	if resp.Summary.TotalAssets != 1 {
		t.Errorf("expected 1 asset in filtered summary, got %d", resp.Summary.TotalAssets)
	}
}

func TestGetPortfolioHandler_UnknownNetwork(t *testing.T) {
	_, router := setup(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/portfolio?network=solana")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRefreshPortfolioHandler(t *testing.T) {
	svc, router := setup(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/portfolio/refresh")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if svc.refreshes.Load() != 1 {
		t.Errorf("expected 1 refresh trigger, got %d", svc.refreshes.Load())
	}
}

func TestGetOwnerPortfolioHandler(t *testing.T) {
	t.Run("valid address", func(t *testing.T) {
		_, router := setup(t)

		rec := doRequest(t, router, http.MethodGet, "/api/v1/portfolio/0x0000000000000000000000000000000000000001")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp PortfolioResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.OwnerAddress != "0x0000000000000000000000000000000000000001" {
			t.Errorf("unexpected owner %q", resp.OwnerAddress)
		}
	})

	t.Run("invalid address", func(t *testing.T) {
		_, router := setup(t)

		rec := doRequest(t, router, http.MethodGet, "/api/v1/portfolio/not-an-address")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestListAssetsHandler(t *testing.T) {
	_, router := setup(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/assets")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Networks []entity.NetworkDefinition `json:"networks"`
		Assets   []entity.AssetDescriptor   `json:"assets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Networks) != 2 || len(resp.Assets) != 2 {
		t.Errorf("expected 2 networks / 2 assets, got %d / %d", len(resp.Networks), len(resp.Assets))
	}
}

func TestHealthz(t *testing.T) {
	_, router := setup(t)

	rec := doRequest(t, router, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
