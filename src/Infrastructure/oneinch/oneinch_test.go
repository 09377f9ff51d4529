package oneinch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MMN3003/express/src/express/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPair() domain.Pair {
	destination := domain.Currency{Blockchain: "ethereum", ContractAddress: "0xdai", Decimals: 18, Symbol: "DAI"}
	return domain.Pair{
		Source:      domain.Currency{Blockchain: "ethereum", Decimals: 18, Symbol: "ETH"},
		Destination: &destination,
	}
}

func TestFetchQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1/quote", r.URL.Path)
		assert.Equal(t, nativeCoinAddress, r.URL.Query().Get("src"))
		assert.Equal(t, "0xdai", r.URL.Query().Get("dst"))
		assert.Equal(t, "1000000000000000000", r.URL.Query().Get("amount"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"toAmount":"3200000000000000000000","gas":180000}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, WithAPIKey("test-key"))
	require.NoError(t, err)

	amount := decimal.RequireFromString("1000000000000000000")
	quote, err := client.FetchQuote(context.Background(), testPair(), amount, nil)
	require.NoError(t, err)

	assert.True(t, quote.FromAmount.Equal(amount))
	assert.True(t, quote.ToAmount.Equal(decimal.RequireFromString("3200000000000000000000")))
	assert.Equal(t, 180000, quote.EstimatedGas)
}

func TestFetchQuoteTooSmallAmount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{
			"error": "Bad Request",
			"description": "amount is less than minimum",
			"statusCode": 400,
			"meta": [{"type": "minAmount", "value": "0.05"}]
		}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = client.FetchQuote(context.Background(), testPair(), decimal.New(1, 0), nil)
	require.Error(t, err)

	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, domain.APIErrorCodeTooSmallAmount, apiErr.Code)
	assert.True(t, apiErr.MinAmount.Equal(decimal.RequireFromString("0.05")))
}

func TestFetchQuoteGenericAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Bad Request","description":"insufficient liquidity","statusCode":400}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = client.FetchQuote(context.Background(), testPair(), decimal.New(1, 0), nil)
	require.Error(t, err)

	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, domain.APIErrorCodeUnknown, apiErr.Code)
	assert.Contains(t, apiErr.Message, "insufficient liquidity")
}

func TestFetchExchangeData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1/swap", r.URL.Path)
		assert.Equal(t, "0xwallet", r.URL.Query().Get("from"))
		assert.Equal(t, "0xreferrer", r.URL.Query().Get("referrer"))
		assert.Equal(t, "1", r.URL.Query().Get("fee"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"toAmount": "3200000000",
			"tx": {
				"from": "0xwallet",
				"to": "0xrouter",
				"data": "0x0102ff",
				"value": "1000000000000000000",
				"gas": 250000
			}
		}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	referrer := &domain.ReferrerAccount{Address: "0xreferrer", FeeBps: 100}
	amount := decimal.RequireFromString("1000000000000000000")
	data, err := client.FetchExchangeData(context.Background(), testPair(), "0xwallet", amount, referrer)
	require.NoError(t, err)

	assert.Equal(t, "0xwallet", data.SourceAddress)
	assert.Equal(t, "0xrouter", data.DestinationAddress)
	assert.Equal(t, []byte{0x01, 0x02, 0xff}, data.TxData)
	assert.True(t, data.Value.Equal(amount))
	assert.True(t, data.SourceAmount.Equal(amount))
	assert.True(t, data.DestinationAmount.Equal(decimal.RequireFromString("3200000000")))
}

func TestFetchSpenderAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1/approve/spender", r.URL.Path)
		_, _ = w.Write([]byte(`{"address":"0x1111111254eeb25477b68fb85ed929f73a960582"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	spender, err := client.FetchSpenderAddress(context.Background(), "ethereum")
	require.NoError(t, err)
	assert.Equal(t, "0x1111111254eeb25477b68fb85ed929f73a960582", spender)
}

func TestUnsupportedBlockchain(t *testing.T) {
	client, err := NewClient("https://example.invalid")
	require.NoError(t, err)

	_, err = client.FetchSpenderAddress(context.Background(), "dogecoin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported blockchain")
}

func TestQuoteRequiresDestination(t *testing.T) {
	client, err := NewClient("https://example.invalid")
	require.NoError(t, err)

	pair := testPair()
	pair.Destination = nil
	_, err = client.FetchQuote(context.Background(), pair, decimal.New(1, 0), nil)
	assert.ErrorIs(t, err, domain.ErrDestinationNotFound)
}
