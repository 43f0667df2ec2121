package dispatch

import (
	"fmt"
	"time"
)

// Config carries the options needed to build any dispatcher variant.
type Config struct {
	Method     Method
	URL        string
	DateFormat string
	Timeout    time.Duration
	RetryMax   int
}

// New builds the configured dispatcher.
func New(cfg Config) (Dispatcher, error) {
	switch cfg.Method {
	case MethodTest:
		return NewNoopDispatcher(), nil
	case MethodAPI:
		return NewHTTPDispatcher(cfg.URL, cfg.DateFormat, cfg.Timeout, cfg.RetryMax), nil
	case MethodAirflow:
		return NewAirflowDispatcher(cfg.URL, cfg.DateFormat, cfg.Timeout, cfg.RetryMax), nil
	default:
		return nil, fmt.Errorf("dispatch: unknown method %q", cfg.Method)
	}
}
