package portfolioApi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KotFed0t/librefolio/config"
	"github.com/KotFed0t/librefolio/internal/externalApi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const portfolioEndpoint = "/cash-homework/cash-stocks-api/portfolio.json"

func newTestApi(t *testing.T, status int, body string) *PortfolioApi {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != portfolioEndpoint {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.API.PortfolioApi = config.PortfolioApi{
		Url:        srv.URL,
		Endpoint:   portfolioEndpoint,
		StocksPath: "$.stocks",
	}

	return New(cfg)
}

func TestGetStocks_Success(t *testing.T) {
	api := newTestApi(t, http.StatusOK, `{"stocks":[
		{"ticker":"T","name":"N","currency":"USD","current_price_cents":100,"quantity":10,"current_price_timestamp":12345},
		"not an object"
	]}`)

	stocks, err := api.GetStocks(context.Background())
	require.NoError(t, err)
	require.Len(t, stocks, 2)

	first, ok := stocks[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("100"), first["current_price_cents"])
	assert.Equal(t, "not an object", stocks[1])
}

func TestGetStocks_EmptyArray(t *testing.T) {
	api := newTestApi(t, http.StatusOK, `{"stocks":[]}`)

	stocks, err := api.GetStocks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stocks)
}

func TestGetStocks_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"stocks":[]}`, externalApi.ErrUnsuccessfulResponse},
		{"not found", http.StatusNotFound, ``, externalApi.ErrUnsuccessfulResponse},
		{"not found is distinguishable", http.StatusNotFound, ``, externalApi.ErrNotFound},
		{"empty body", http.StatusOK, ``, externalApi.ErrEmptyBody},
		{"null body", http.StatusOK, `null`, externalApi.ErrEmptyBody},
		{"malformed", http.StatusOK, `{"stocks":[{"ticker":"T"`, externalApi.ErrMalformedResponse},
		{"trailing data", http.StatusOK, `{"stocks":[]} {"stocks":[]}`, externalApi.ErrMalformedResponse},
		{"no stocks field", http.StatusOK, `{"portfolio":[]}`, externalApi.ErrStocksFieldMissing},
		{"stocks is null", http.StatusOK, `{"stocks":null}`, externalApi.ErrStocksFieldMissing},
		{"stocks is object", http.StatusOK, `{"stocks":{"ticker":"T"}}`, externalApi.ErrStocksFieldMissing},
		{"top level array", http.StatusOK, `[]`, externalApi.ErrStocksFieldMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestApi(t, tt.status, tt.body)

			stocks, err := api.GetStocks(context.Background())
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, stocks)
		})
	}
}

func TestGetStocks_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := &config.Config{}
	cfg.API.PortfolioApi = config.PortfolioApi{Url: url, Endpoint: portfolioEndpoint, StocksPath: "$.stocks"}

	_, err := New(cfg).GetStocks(context.Background())
	require.Error(t, err)
}

func TestGetStocks_CancelledContext(t *testing.T) {
	api := newTestApi(t, http.StatusOK, `{"stocks":[]}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := api.GetStocks(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
