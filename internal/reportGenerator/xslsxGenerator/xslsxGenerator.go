package xslsxGenerator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/librefolio/internal/model"
	"github.com/KotFed0t/librefolio/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Holdings"

var ErrEmptyHoldings = errors.New("empty holdings")

var header = []string{"ticker", "name", "currency", "price", "quantity", "amount", "price updated (UTC)"}

type XSLSXGenerator struct{}

func New() *XSLSXGenerator {
	return &XSLSXGenerator{}
}

// Generate writes holdings, in the given order, to a single sheet workbook.
// Prices and amounts are in major currency units.
func (g *XSLSXGenerator) Generate(ctx context.Context, holdings []model.Holding) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.Generate"

	if len(holdings) == 0 {
		return nil, "", ErrEmptyHoldings
	}

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("holdings", len(holdings)))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if err = f.SetSheetName("Sheet1", SheetName); err != nil {
		slog.Error("got error while renaming Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	if err = g.fillSheet(f, holdings); err != nil {
		slog.Error("got error while filling sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XSLSXGenerator) fillSheet(f *excelize.File, holdings []model.Holding) error {
	styleID, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return err
	}

	if err = f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	lastHeaderCell, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}

	if err = f.SetCellStyle(SheetName, "A1", lastHeaderCell, styleID); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	dateStyleID, err := f.NewStyle(&excelize.Style{NumFmt: 22})
	if err != nil {
		return err
	}

	for i, h := range holdings {
		row := i + 2

		_ = f.SetCellStr(SheetName, fmt.Sprintf("A%d", row), h.Ticker)
		_ = f.SetCellStr(SheetName, fmt.Sprintf("B%d", row), h.Name)
		_ = f.SetCellStr(SheetName, fmt.Sprintf("C%d", row), h.Currency)
		_ = f.SetCellValue(SheetName, fmt.Sprintf("D%d", row), centsToUnits(h.PriceCents))
		_ = f.SetCellInt(SheetName, fmt.Sprintf("E%d", row), int(h.Quantity))
		_ = f.SetCellValue(SheetName, fmt.Sprintf("F%d", row), centsToUnits(h.HeldCents()))

		updatedCell := fmt.Sprintf("G%d", row)
		_ = f.SetCellValue(SheetName, updatedCell, time.Unix(h.PriceTimestamp, 0).UTC())
		_ = f.SetCellStyle(SheetName, updatedCell, updatedCell, dateStyleID)
	}

	return f.SetColWidth(SheetName, "B", "B", 30)
}

func centsToUnits(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}
