// Package oneinch implements a strongly-typed HTTP client for a 1inch-style
// aggregation REST API, exposed to the express core as a DEX ExpressAPIProvider.
//
// Coverage:
// - Quote (indicative pricing)
// - Swap (assembled transaction calldata)
// - Approve spender address
//
// Notes:
// - Error responses follow an {error, description, statusCode, meta} shape
// - "amount less than minimum" errors are translated into domain.APIError so
//   the core can render the provider's minimum
// - Requires Authorization bearer header when an API key is configured
package oneinch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/MMN3003/express/src/express/domain"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Default HTTP timeouts tuned for interactive quoting
var (
	DefaultHTTPClient = &http.Client{Timeout: 30 * time.Second}
)

// nativeCoinAddress is the conventional pseudo-address of a chain's native coin.
const nativeCoinAddress = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

// chainIDs maps the express blockchain identifiers to EVM chain ids.
var chainIDs = map[string]string{
	"ethereum":  "1",
	"optimism":  "10",
	"bsc":       "56",
	"polygon":   "137",
	"fantom":    "250",
	"arbitrum":  "42161",
	"avalanche": "43114",
}

// NewClient constructs a new API client for the given base URL
func NewClient(baseUrl string, opts ...Option) (*Client, error) {
	if baseUrl == "" {
		return nil, errors.New("base url is required")
	}

	u, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	c := &Client{
		BaseURL:   u,
		HTTP:      DefaultHTTPClient,
		UserAgent: "express-oneinch/1.0",
		Logger:    log.Logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Option functional options
type Option func(*Client)

func WithAPIKey(key string) Option         { return func(c *Client) { c.APIKey = key } }
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }
func WithUserAgent(ua string) Option       { return func(c *Client) { c.UserAgent = ua } }
func WithLogger(l zerolog.Logger) Option   { return func(c *Client) { c.Logger = l } }

type Client struct {
	BaseURL   *url.URL
	HTTP      *http.Client
	APIKey    string
	UserAgent string
	Logger    zerolog.Logger
}

var _ domain.ExpressAPIProvider = (*Client)(nil)

// errorResponse is the API's error envelope
type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"description"`
	StatusCode  int    `json:"statusCode"`
	Meta        []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"meta"`
}

type quoteResponse struct {
	ToAmount string `json:"toAmount"`
	Gas      int    `json:"gas"`
}

type swapResponse struct {
	ToAmount string `json:"toAmount"`
	Tx       struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Data  string `json:"data"`
		Value string `json:"value"`
		Gas   int    `json:"gas"`
	} `json:"tx"`
}

type spenderResponse struct {
	Address string `json:"address"`
}

// FetchQuote retrieves indicative pricing for the pair. Amount in minor units.
func (c *Client) FetchQuote(
	ctx context.Context,
	pair domain.Pair,
	amount decimal.Decimal,
	referrer *domain.ReferrerAccount,
) (domain.Quote, error) {
	if pair.Destination == nil {
		return domain.Quote{}, domain.ErrDestinationNotFound
	}

	chainID, err := chainID(pair.Source.Blockchain)
	if err != nil {
		return domain.Quote{}, err
	}

	query := url.Values{}
	query.Set("src", tokenAddress(pair.Source))
	query.Set("dst", tokenAddress(*pair.Destination))
	query.Set("amount", amount.String())
	setReferrer(query, referrer)

	resp, err := doJSON[quoteResponse](c, ctx, chainID+"/quote", query)
	if err != nil {
		return domain.Quote{}, err
	}

	toAmount, err := decimal.NewFromString(resp.ToAmount)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("invalid toAmount %q: %w", resp.ToAmount, err)
	}

	return domain.Quote{
		FromAmount:   amount,
		ToAmount:     toAmount,
		EstimatedGas: resp.Gas,
	}, nil
}

// FetchExchangeData retrieves the assembled swap transaction.
func (c *Client) FetchExchangeData(
	ctx context.Context,
	pair domain.Pair,
	walletAddress string,
	amount decimal.Decimal,
	referrer *domain.ReferrerAccount,
) (domain.ExchangeData, error) {
	if pair.Destination == nil {
		return domain.ExchangeData{}, domain.ErrDestinationNotFound
	}

	chainID, err := chainID(pair.Source.Blockchain)
	if err != nil {
		return domain.ExchangeData{}, err
	}

	query := url.Values{}
	query.Set("src", tokenAddress(pair.Source))
	query.Set("dst", tokenAddress(*pair.Destination))
	query.Set("amount", amount.String())
	query.Set("from", walletAddress)
	query.Set("slippage", "1")
	setReferrer(query, referrer)

	resp, err := doJSON[swapResponse](c, ctx, chainID+"/swap", query)
	if err != nil {
		return domain.ExchangeData{}, err
	}

	toAmount, err := decimal.NewFromString(resp.ToAmount)
	if err != nil {
		return domain.ExchangeData{}, fmt.Errorf("invalid toAmount %q: %w", resp.ToAmount, err)
	}

	value, err := decimal.NewFromString(resp.Tx.Value)
	if err != nil {
		return domain.ExchangeData{}, fmt.Errorf("invalid tx value %q: %w", resp.Tx.Value, err)
	}

	txData, err := hexutil.Decode(resp.Tx.Data)
	if err != nil {
		return domain.ExchangeData{}, fmt.Errorf("invalid tx data: %w", err)
	}

	return domain.ExchangeData{
		SourceAddress:      resp.Tx.From,
		DestinationAddress: resp.Tx.To,
		Value:              value,
		TxData:             txData,
		SourceAmount:       amount,
		DestinationAmount:  toAmount,
	}, nil
}

// FetchSpenderAddress returns the router contract to be granted allowance.
func (c *Client) FetchSpenderAddress(ctx context.Context, blockchain string) (string, error) {
	chainID, err := chainID(blockchain)
	if err != nil {
		return "", err
	}

	resp, err := doJSON[spenderResponse](c, ctx, chainID+"/approve/spender", nil)
	if err != nil {
		return "", err
	}

	return resp.Address, nil
}

func chainID(blockchain string) (string, error) {
	if id, ok := chainIDs[blockchain]; ok {
		return id, nil
	}
	return "", fmt.Errorf("unsupported blockchain %q", blockchain)
}

func tokenAddress(currency domain.Currency) string {
	if currency.IsToken() {
		return currency.ContractAddress
	}
	return nativeCoinAddress
}

func setReferrer(query url.Values, referrer *domain.ReferrerAccount) {
	if referrer == nil || referrer.Address == "" {
		return
	}
	query.Set("referrer", referrer.Address)
	if referrer.FeeBps > 0 {
		// API expects the fee in percent
		query.Set("fee", decimal.NewFromInt(int64(referrer.FeeBps)).Div(decimal.NewFromInt(100)).String())
	}
}

// doJSON performs a GET request and decodes the response, translating the
// error envelope into domain errors.
func doJSON[T any](c *Client, ctx context.Context, endpoint string, query url.Values) (T, error) {
	var zero T

	u := c.BaseURL.JoinPath(endpoint)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return zero, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	c.Logger.Debug().Str("url", u.String()).Msg("oneinch request")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, err
	}

	if resp.StatusCode != http.StatusOK {
		return zero, mapAPIError(body, resp.StatusCode)
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return zero, fmt.Errorf("decode response: %w", err)
	}

	return out, nil
}

func mapAPIError(body []byte, statusCode int) error {
	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("oneinch: http %d", statusCode)
	}

	for _, meta := range envelope.Meta {
		if meta.Type != "minAmount" {
			continue
		}
		if minAmount, err := decimal.NewFromString(meta.Value); err == nil {
			return &domain.APIError{
				Code:      domain.APIErrorCodeTooSmallAmount,
				Message:   envelope.Description,
				MinAmount: minAmount,
			}
		}
	}

	return &domain.APIError{
		Code:    domain.APIErrorCodeUnknown,
		Message: envelope.Description,
	}
}
