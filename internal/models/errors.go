package models

import "errors"

// Custom errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrMissingPriceData = errors.New("no price data for requested window")
	ErrInvalidTicker    = errors.New("invalid ticker symbol")
	ErrAgentFailed      = errors.New("decision agent failed")
)
