package config

import (
	"context"
	"errors"

	"suggest-combiner/internal/domain"
	"suggest-combiner/internal/observe"
)

// Resolver derives a domain.LLMConfig from a Source. It never fails: lookup
// errors are logged and the key is treated as unset.
type Resolver struct {
	src Source
}

func NewResolver(src Source) (*Resolver, error) {
	if src == nil {
		return nil, errors.New("config: source must not be nil")
	}
	return &Resolver{src: src}, nil
}

func (r *Resolver) Resolve(ctx context.Context) domain.LLMConfig {
	return domain.LLMConfig{
		APIKey:  r.lookup(ctx, KeyAPIKey, ""),
		BaseURL: r.lookup(ctx, KeyBaseURL, domain.DefaultBaseURL),
		Model:   r.lookup(ctx, KeyModel, domain.DefaultModel),
	}
}

func (r *Resolver) lookup(ctx context.Context, key, def string) string {
	v, ok, err := r.src.Lookup(ctx, key)
	if err != nil {
		// the value is never logged
		observe.Logger(ctx).WarnContext(ctx, "config lookup failed, using default", "key", key, "err", err)
	}
	if !ok {
		return def
	}
	return v
}
