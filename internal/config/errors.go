package config

import "errors"

var (
	// ErrInvalidPageBudget is returned when the page budget is not greater than 0
	ErrInvalidPageBudget = errors.New("page_budget must be greater than 0")
	// ErrInvalidConcurrency is returned when concurrency is not greater than 0
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")
	// ErrInvalidTimeout is returned when request timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrInvalidBodyCap is returned when the response body cap is not greater than 0
	ErrInvalidBodyCap = errors.New("max_body_bytes must be greater than 0")
	// ErrEmptyUserAgent is returned when no User-Agent is configured
	ErrEmptyUserAgent = errors.New("user_agent cannot be empty")
)
