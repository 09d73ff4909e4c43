package xslsxGenerator

import (
	"bytes"
	"context"
	"testing"

	"github.com/KotFed0t/librefolio/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerate(t *testing.T) {
	holdings := []model.Holding{
		{ID: "2", Ticker: "TSLA", Name: "Tesla", Currency: "USD", PriceCents: 12345, Quantity: 10, PriceTimestamp: 1700000000},
		{ID: "0", Ticker: "AAPL", Name: "Apple", Currency: "USD", PriceCents: 17000, Quantity: 0, PriceTimestamp: 1700000000},
	}

	fileBytes, ext, err := New().Generate(context.Background(), holdings)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", ext)

	f, err := excelize.OpenReader(bytes.NewReader(fileBytes))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"TSLA", "Tesla", "USD", "123.45", "10", "1234.5"}, rows[1][:6])
	assert.Equal(t, []string{"AAPL", "Apple", "USD", "170", "0", "0"}, rows[2][:6])
}

func TestGenerate_Empty(t *testing.T) {
	_, _, err := New().Generate(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyHoldings)
}
