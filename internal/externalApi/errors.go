package externalApi

import "errors"

var (
	ErrNotFound             = errors.New("error not found")
	ErrUnsuccessfulResponse = errors.New("response was unsuccessful")
	ErrEmptyBody            = errors.New("response body is empty")
	ErrMalformedResponse    = errors.New("response body is malformed")
	ErrStocksFieldMissing   = errors.New("stocks array is missing")
)
