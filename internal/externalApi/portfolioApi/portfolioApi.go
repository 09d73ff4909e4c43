package portfolioApi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/KotFed0t/librefolio/config"
	"github.com/KotFed0t/librefolio/internal/externalApi"
	"github.com/KotFed0t/librefolio/utils"
	"github.com/PaesslerAG/jsonpath"
	"github.com/go-resty/resty/v2"
)

type PortfolioApi struct {
	client     *resty.Client
	endpoint   string
	stocksPath string
}

func New(cfg *config.Config) *PortfolioApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetBaseURL(cfg.API.PortfolioApi.Url)

	if cfg.API.Timeout > 0 {
		client.SetTimeout(cfg.API.Timeout)
	}

	return &PortfolioApi{
		client:     client,
		endpoint:   cfg.API.PortfolioApi.Endpoint,
		stocksPath: cfg.API.PortfolioApi.StocksPath,
	}
}

// GetStocks makes one request for the portfolio and returns the raw elements of its stocks array.
// Numbers inside the elements are json.Number.
func (a *PortfolioApi) GetStocks(ctx context.Context) (stocks []any, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioApi.GetStocks"

	slog.Debug("GetStocks start", slog.String("rqID", rqID), slog.String("op", op), slog.String("endpoint", a.endpoint))
	defer func() {
		if err != nil {
			slog.Error("GetStocks failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetStocks completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("stocks", len(stocks)))
		}
	}()

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(a.endpoint)
	if err != nil {
		return nil, fmt.Errorf("request portfolio: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %w: status %d", externalApi.ErrUnsuccessfulResponse, externalApi.ErrNotFound, resp.StatusCode())
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: status %d", externalApi.ErrUnsuccessfulResponse, resp.StatusCode())
	}

	// may contain sensitive data
	slog.Debug("portfolio response", slog.String("rqID", rqID), slog.String("op", op), slog.String("body", resp.String()))

	body, err := decodeBody(resp.Body())
	if err != nil {
		return nil, err
	}

	return a.extractStocks(body)
}

func decodeBody(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, externalApi.ErrEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", externalApi.ErrMalformedResponse, err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: document was not fully consumed", externalApi.ErrMalformedResponse)
	}

	if body == nil {
		return nil, externalApi.ErrEmptyBody
	}

	return body, nil
}

func (a *PortfolioApi) extractStocks(body any) ([]any, error) {
	value, err := jsonpath.Get(a.stocksPath, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", externalApi.ErrStocksFieldMissing, err)
	}

	stocks, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, not an array", externalApi.ErrStocksFieldMissing, a.stocksPath, value)
	}

	return stocks, nil
}
