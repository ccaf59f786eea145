package usecase

import (
	"errors"
	"fmt"
)

// FailureKind classifies why the enhancement path did not produce a message.
type FailureKind string

const (
	FailureUnavailable    FailureKind = "unavailable"
	FailureUpstreamStatus FailureKind = "upstream_status"
	FailureTransport      FailureKind = "transport"
	FailureMalformed      FailureKind = "malformed"
	FailureEmpty          FailureKind = "empty"
)

// LLMFailure is the failure half of the composer's result. It never carries
// partial output.
type LLMFailure struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (f *LLMFailure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("llm %s", f.Kind)
	}
	return fmt.Sprintf("llm %s: %v", f.Kind, f.Err)
}

func (f *LLMFailure) Unwrap() error {
	return f.Err
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type malformedResponder interface {
	MalformedResponse() bool
}

// classifyLLMError maps a client error onto a failure kind. Anything that is
// neither a status nor a body problem is treated as a transport fault.
func classifyLLMError(err error) *LLMFailure {
	var statusErr httpStatusCoder
	if errors.As(err, &statusErr) {
		return &LLMFailure{Kind: FailureUpstreamStatus, StatusCode: statusErr.HTTPStatusCode(), Err: err}
	}
	var malformed malformedResponder
	if errors.As(err, &malformed) && malformed.MalformedResponse() {
		return &LLMFailure{Kind: FailureMalformed, Err: err}
	}
	return &LLMFailure{Kind: FailureTransport, Err: err}
}
