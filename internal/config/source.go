// Package config resolves the LLM connection parameters from process-wide
// configuration state. Values are looked up on every call so that rotated
// credentials take effect without a restart.
package config

import (
	"context"
	"errors"
)

// Keys understood by every Source. EnvSource maps them to the upper-cased
// environment variables (OPENAI_API_KEY, ...).
const (
	KeyAPIKey  = "openai_api_key"
	KeyBaseURL = "openai_base_url"
	KeyModel   = "openai_model"
)

// Source looks up a single configuration value. A missing or empty value is
// reported as ok=false with a nil error.
type Source interface {
	Lookup(ctx context.Context, key string) (value string, ok bool, err error)
}

// Chain consults its sources in order and returns the first value found.
// Errors from earlier sources do not stop the search; they are returned only
// when no later source has the key.
type Chain []Source

func (c Chain) Lookup(ctx context.Context, key string) (string, bool, error) {
	var errs []error
	for _, src := range c {
		if src == nil {
			continue
		}
		v, ok, err := src.Lookup(ctx, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, errors.Join(errs...)
}
