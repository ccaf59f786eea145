package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"suggest-combiner/internal/integrations/paramstore"
)

// tokenPayload is the expected JSON shape stored in SSM for the API token.
type tokenPayload struct {
	Token string `json:"token"`
}

// ParamStoreSource reads keys from AWS SSM Parameter Store below a prefix:
//
//	openai_api_key  -> {prefix}/open-ai-token        ({"token":"..."})
//	openai_base_url -> {prefix}/config/openai_base_url
//	openai_model    -> {prefix}/config/openai_model
type ParamStoreSource struct {
	getter paramstore.Getter
	prefix string
}

func NewParamStoreSource(g paramstore.Getter, prefix string) (*ParamStoreSource, error) {
	if g == nil {
		return nil, errors.New("config: paramstore getter must not be nil")
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return nil, errors.New("config: parameter prefix must not be empty")
	}
	return &ParamStoreSource{getter: g, prefix: prefix}, nil
}

func (s *ParamStoreSource) parameterName(key string) (string, bool) {
	switch key {
	case KeyAPIKey:
		return s.prefix + "/open-ai-token", true
	case KeyBaseURL:
		return s.prefix + "/config/openai_base_url", true
	case KeyModel:
		return s.prefix + "/config/openai_model", true
	}
	return "", false
}

func (s *ParamStoreSource) Lookup(ctx context.Context, key string) (string, bool, error) {
	name, ok := s.parameterName(key)
	if !ok {
		return "", false, nil
	}
	raw, err := s.getter.GetParameter(ctx, name)
	if errors.Is(err, paramstore.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("config: fetch %s: %w", key, err)
	}
	if key == KeyAPIKey {
		var tp tokenPayload
		if err := json.Unmarshal([]byte(raw), &tp); err != nil {
			return "", false, fmt.Errorf("config: unmarshal paramstore token value as JSON: %w", err)
		}
		raw = tp.Token
	}
	val := strings.TrimSpace(raw)
	return val, val != "", nil
}
