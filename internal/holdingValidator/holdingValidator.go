package holdingValidator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KotFed0t/librefolio/internal/model"
	"github.com/shopspring/decimal"
)

// Fields of a "stocks" element.
const (
	TickerField    = "ticker"
	NameField      = "name"
	CurrencyField  = "currency"
	PriceField     = "current_price_cents"
	QuantityField  = "quantity"
	TimestampField = "current_price_timestamp"
)

const QuantityDefaultValue int64 = 0

var requiredFields = []string{TickerField, NameField, CurrencyField, PriceField, TimestampField}

var (
	ErrMissingField = errors.New("field is missing or null")
	ErrNotInteger   = errors.New("field is not an integer")
	ErrNotString    = errors.New("field is not a string")
)

var (
	minInt64 = decimal.NewFromInt(-1 << 63)
	maxInt64 = decimal.NewFromInt(1<<63 - 1)
)

// maxInt64Exponent is the largest exponent a non-zero int64 can have: |c * 10^19| > math.MaxInt64.
const maxInt64Exponent = 18

// RejectionError tells which field of which holding made Validate refuse it.
type RejectionError struct {
	HoldingID string
	Field     string
	Err       error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("holding %s: field %s: %s", e.HoldingID, e.Field, e.Err)
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

// Validate maps a decoded "stocks" element to a Holding.
// raw is expected to come from a json decoder with UseNumber, but plain Go numbers are accepted too.
func Validate(holdingID string, raw map[string]any) (model.Holding, error) {
	for _, field := range requiredFields {
		if raw[field] == nil {
			return model.Holding{}, reject(holdingID, field, ErrMissingField)
		}
	}

	price, err := toInt(raw[PriceField])
	if err != nil {
		return model.Holding{}, reject(holdingID, PriceField, err)
	}

	timestamp, err := toInt(raw[TimestampField])
	if err != nil {
		return model.Holding{}, reject(holdingID, TimestampField, err)
	}

	quantity := QuantityDefaultValue
	if v := raw[QuantityField]; v != nil {
		quantity, err = toInt(v)
		if err != nil {
			return model.Holding{}, reject(holdingID, QuantityField, err)
		}
	}

	strs := make(map[string]string, 3)
	for _, field := range []string{TickerField, NameField, CurrencyField} {
		s, err := toString(raw[field])
		if err != nil {
			return model.Holding{}, reject(holdingID, field, err)
		}
		strs[field] = s
	}

	return model.Holding{
		ID:             holdingID,
		Ticker:         strs[TickerField],
		Name:           strs[NameField],
		Currency:       strs[CurrencyField],
		PriceCents:     price,
		Quantity:       quantity,
		PriceTimestamp: timestamp,
	}, nil
}

func reject(holdingID, field string, err error) error {
	return &RejectionError{HoldingID: holdingID, Field: field, Err: err}
}

func toInt(v any) (int64, error) {
	var (
		d   decimal.Decimal
		err error
	)

	switch val := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(val.String())
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(val))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, ErrNotInteger
		}
		d = decimal.NewFromFloat(val)
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	default:
		return 0, ErrNotInteger
	}

	if err != nil {
		return 0, ErrNotInteger
	}

	// Cmp and IsInteger work in 10^|exp| steps, so zero and huge exponents are settled first.
	if d.IsZero() {
		return 0, nil
	}
	if d.Exponent() > maxInt64Exponent {
		return 0, ErrNotInteger
	}

	if !d.IsInteger() || d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
		return 0, ErrNotInteger
	}

	return d.IntPart(), nil
}

func toString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	default:
		return "", ErrNotString
	}
}
