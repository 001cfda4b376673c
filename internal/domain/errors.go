package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the recoverable failures of the chat core
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindUnauthenticated: a message was submitted before identification
	KindUnauthenticated
	// KindPersistenceFailure: the store failed or refused a read or write
	KindPersistenceFailure
	// KindUnresolvedIdentity: identification named a user that does not exist
	KindUnresolvedIdentity
	// KindAnomalousDisconnect: a connection closed without ever identifying
	KindAnomalousDisconnect
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindPersistenceFailure:
		return "persistence failure"
	case KindUnresolvedIdentity:
		return "unresolved identity"
	case KindAnomalousDisconnect:
		return "anomalous disconnect"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is
var (
	ErrUnauthenticated     = &Error{Kind: KindUnauthenticated}
	ErrPersistenceFailure  = &Error{Kind: KindPersistenceFailure}
	ErrUnresolvedIdentity  = &Error{Kind: KindUnresolvedIdentity}
	ErrAnomalousDisconnect = &Error{Kind: KindAnomalousDisconnect}
)

// Error is a classified core failure
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError wraps err with a kind and the operation that failed
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
