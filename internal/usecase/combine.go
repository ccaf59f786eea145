package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"suggest-combiner/internal/domain"
	"suggest-combiner/internal/observe"
)

type ConfigResolver interface {
	Resolve(ctx context.Context) domain.LLMConfig
}

type LLMClient interface {
	Chat(ctx context.Context, cfg domain.LLMConfig, req domain.ChatRequest) (string, error)
}

type Recorder interface {
	RecordCombination(ctx context.Context, usedLLM bool)
	RecordLLMFailure(ctx context.Context, kind string)
	RecordLLMDuration(ctx context.Context, d time.Duration, ok bool)
}

// CombineService merges message fragments into one message, preferring the
// LLM and falling back to JoinFragments on any enhancement-path failure.
type CombineService struct {
	config  ConfigResolver
	llm     LLMClient
	metrics Recorder
}

// NewCombineService wires the service. A nil recorder disables metrics.
func NewCombineService(cfg ConfigResolver, llm LLMClient, metrics Recorder) (*CombineService, error) {
	if cfg == nil {
		return nil, errors.New("usecase: config resolver must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if metrics == nil {
		metrics = observe.NoopMetrics()
	}
	return &CombineService{config: cfg, llm: llm, metrics: metrics}, nil
}

func (s *CombineService) Combine(ctx context.Context, in domain.CombineInput) (domain.CombinationResult, error) {
	if in.Messages == nil {
		return domain.CombinationResult{}, newError(ErrorInvalidInput, "missing_messages", nil)
	}
	if len(in.Messages) == 0 {
		return domain.CombinationResult{}, newError(ErrorInvalidInput, "empty_messages", nil)
	}
	fragments := in.Messages

	text, failure := s.compose(ctx, s.config.Resolve(ctx), fragments)
	usedLLM := failure == nil
	if !usedLLM {
		s.recordFailure(ctx, failure)
		text = JoinFragments(fragments)
	}
	s.metrics.RecordCombination(ctx, usedLLM)

	return domain.CombinationResult{
		CombinedMessage: text,
		OriginalCount:   len(fragments),
		UsedLLM:         usedLLM,
	}, nil
}

// compose runs the enhancement path: at most one completion call. Exactly one
// of the return values is meaningful.
func (s *CombineService) compose(ctx context.Context, cfg domain.LLMConfig, fragments []string) (string, *LLMFailure) {
	if !cfg.Usable() {
		return "", &LLMFailure{Kind: FailureUnavailable}
	}

	start := time.Now()
	raw, err := s.llm.Chat(ctx, cfg, buildCompositionRequest(fragments))
	s.metrics.RecordLLMDuration(ctx, time.Since(start), err == nil)
	if err != nil {
		return "", classifyLLMError(err)
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return "", &LLMFailure{Kind: FailureEmpty}
	}
	return text, nil
}

// recordFailure logs f and counts it. An unconfigured LLM is not a failure:
// it only shows up in the fallback strategy count.
func (s *CombineService) recordFailure(ctx context.Context, f *LLMFailure) {
	logger := observe.Logger(ctx)
	if f.Kind == FailureUnavailable {
		logger.DebugContext(ctx, "llm not configured, using fallback")
		return
	}
	s.metrics.RecordLLMFailure(ctx, string(f.Kind))
	logger.WarnContext(ctx, "llm composition failed, using fallback",
		"kind", f.Kind,
		"status", f.StatusCode,
		"err", f.Err,
	)
}
