package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an analysis failure.
type ErrorKind string

// Analysis failure kinds.
const (
	KindNetwork         ErrorKind = "network"
	KindService         ErrorKind = "service"
	KindInvalidResponse ErrorKind = "invalid-response"
)

// AnalysisError is returned for every failure after the request was attempted.
type AnalysisError struct {
	Err        error
	Kind       ErrorKind
	StatusCode int
}

func (e *AnalysisError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("mood analysis %s error (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("mood analysis %s error: %v", e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the AnalysisError in err's chain, or "" if there
// is none.
func KindOf(err error) ErrorKind {
	var analysisErr *AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr.Kind
	}
	return ""
}

func networkError(err error) error {
	return &AnalysisError{Kind: KindNetwork, Err: err}
}

func serviceError(status int, err error) error {
	return &AnalysisError{Kind: KindService, StatusCode: status, Err: err}
}

func invalidResponse(err error) error {
	return &AnalysisError{Kind: KindInvalidResponse, Err: err}
}
