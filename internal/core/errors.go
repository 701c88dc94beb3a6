package core

import (
	"errors"
	"fmt"
)

// Kind classifies a conversion failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindMissingInput: no buffer was supplied at all.
	KindMissingInput
	// KindDecodeExhausted: no encoding candidate produced a header line.
	KindDecodeExhausted
	// KindEmptyResult: a header was found but there were no data rows.
	KindEmptyResult
	// KindProcessing: an unexpected failure while converting.
	KindProcessing
)

func (k Kind) String() string {
	switch k {
	case KindMissingInput:
		return "missing input"
	case KindDecodeExhausted:
		return "decode exhausted"
	case KindEmptyResult:
		return "empty result"
	case KindProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrMissingInput    = errors.New("no file provided")
	ErrDecodeExhausted = errors.New("empty file: no readable content")
	ErrEmptyResult     = errors.New("empty file: no data rows")
	ErrProcessing      = errors.New("conversion failed")
)

var kindSentinels = map[Kind]error{
	KindMissingInput:    ErrMissingInput,
	KindDecodeExhausted: ErrDecodeExhausted,
	KindEmptyResult:     ErrEmptyResult,
	KindProcessing:      ErrProcessing,
}

// Error is a conversion failure with its kind and the step that produced it.
type Error struct {
	Kind    Kind
	Op      string // e.g. "convert", "decode", "parse"
	Err     error  // underlying cause, may be nil
	Details string // extra context safe to show to a client
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if s, ok := kindSentinels[e.Kind]; ok {
		msg = s.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// processingError wraps a recovered panic value.
func processingError(op string, v any) *Error {
	if err, ok := v.(error); ok {
		return newError(KindProcessing, op, err)
	}
	return newError(KindProcessing, op, fmt.Errorf("%v", v))
}
