package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"portfolio_tracker/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SimplePrice is one entry of the CoinGecko /simple/price response.
// The 24h change field is optional upstream.
type SimplePrice struct {
	USD          float64  `json:"usd"`
	USD24hChange *float64 `json:"usd_24h_change"`
}

// PriceAPIClient defines the interface for fetching market prices for a
// set of price identifiers.
type PriceAPIClient interface {
	GetSimplePrices(ctx context.Context, priceIDs []string) (map[string]SimplePrice, error)
}

// coinGeckoClientImpl is the CoinGecko implementation of PriceAPIClient.
type coinGeckoClientImpl struct {
	client     *fasthttp.Client
	baseURL    string
	apiKey     string
	vsCurrency string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewCoinGeckoClient creates a new CoinGecko price API client.
func NewCoinGeckoClient(baseURL, apiKey, vsCurrency string, timeout time.Duration, logger *zap.Logger) PriceAPIClient {
	return &coinGeckoClientImpl{
		client:     &fasthttp.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		vsCurrency: vsCurrency,
		timeout:    timeout,
		logger:     logger.Named("CoinGeckoClient"),
	}
}

// GetSimplePrices implements PriceAPIClient. A non-2xx response is
// returned as *entity.UpstreamError so callers can classify it for the
// retry policy.
func (c *coinGeckoClientImpl) GetSimplePrices(ctx context.Context, priceIDs []string) (map[string]SimplePrice, error) {
	if len(priceIDs) == 0 {
		return nil, fmt.Errorf("priceIDs cannot be empty")
	}

	requestURL := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s&include_24hr_change=true",
		c.baseURL, url.QueryEscape(strings.Join(priceIDs, ",")), c.vsCurrency)

	c.logger.Debug("Requesting prices from CoinGecko", zap.String("url", requestURL), zap.Int("idCount", len(priceIDs)))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute request to CoinGecko", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute request to CoinGecko (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("CoinGecko API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody),
		)
		return nil, &entity.UpstreamError{StatusCode: resp.StatusCode(), Body: string(rawBody)}
	}

	prices := make(map[string]SimplePrice, len(priceIDs))
	if err := json.Unmarshal(rawBody, &prices); err != nil {
		c.logger.Error("Failed to unmarshal CoinGecko response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to unmarshal CoinGecko response from %s: %w", requestURL, err)
	}

	c.logger.Debug("Successfully fetched prices from CoinGecko",
		zap.Int("requested", len(priceIDs)),
		zap.Int("returned", len(prices)))
	return prices, nil
}
