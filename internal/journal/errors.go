package journal

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/Veraticus/mood-journal/internal/llm"
)

// ErrorKind classifies a repository failure.
type ErrorKind string

// Repository failure kinds.
const (
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindNotFound        ErrorKind = "not-found"
	KindNetwork         ErrorKind = "network"
	KindUnknown         ErrorKind = "unknown"
)

// RepoError is the only error type the Repository returns.
type RepoError struct {
	Err  error
	Kind ErrorKind
}

func (e *RepoError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("journal %s error", e.Kind)
	}
	return fmt.Sprintf("journal %s error: %v", e.Kind, e.Err)
}

func (e *RepoError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the RepoError in err's chain, or "" if there is
// none.
func KindOf(err error) ErrorKind {
	var repoErr *RepoError
	if errors.As(err, &repoErr) {
		return repoErr.Kind
	}
	return ""
}

func repoError(kind ErrorKind, err error) error {
	return &RepoError{Kind: kind, Err: err}
}

// wrapStoreError classifies an error coming back from the row store.
func wrapStoreError(op string, err error) error {
	wrapped := fmt.Errorf("%s: %w", op, err)

	var netErr net.Error
	switch {
	case errors.Is(err, common.ErrNotFound):
		return repoError(KindNotFound, wrapped)
	case errors.Is(err, common.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &netErr):
		return repoError(KindNetwork, wrapped)
	default:
		return repoError(KindUnknown, wrapped)
	}
}

// Message turns a Repository or analysis failure into text fit for a notice.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, common.ErrEmptyText) {
		return "Write something first."
	}
	switch llm.KindOf(err) {
	case llm.KindNetwork:
		return "Couldn't reach the mood analysis service."
	case llm.KindService:
		return "Mood analysis failed. Try again in a moment."
	case llm.KindInvalidResponse:
		return "Mood analysis returned a response that couldn't be read."
	}
	switch KindOf(err) {
	case KindUnauthenticated:
		return "Sign in to use your journal."
	case KindNotFound:
		return "That entry no longer exists."
	case KindNetwork:
		return "Couldn't reach the journal store. Check your connection and try again."
	case KindUnknown:
		return "Something went wrong talking to the journal store."
	}
	return common.UserMessage(err, "Something went wrong.")
}
