package app

import "errors"

var (
	// ErrEmptyInput is returned when the form text is empty or whitespace.
	ErrEmptyInput = errors.New("input text is empty")
	// ErrNoCode is returned by exports before anything was generated.
	ErrNoCode = errors.New("no QR code generated yet")
	// ErrStale is returned when a newer request superseded this one and its
	// result was discarded.
	ErrStale = errors.New("result superseded by a newer request")
	// ErrUnknownEntry is returned when a history ID is not in the list.
	ErrUnknownEntry = errors.New("unknown history entry")
	// ErrNoClipboard is returned by Copy when no clipboard is configured.
	ErrNoClipboard = errors.New("clipboard not available")

	errNoSaver = errors.New("no save destination configured")
)

// EncodeError reports a failure of the QR encoder.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return "encode QR: " + e.Err.Error() }

func (e *EncodeError) Unwrap() error { return e.Err }

// ExportError reports a failure while composing or saving an export. Op is
// "compose" or "save".
type ExportError struct {
	Op  string
	Err error
}

func (e *ExportError) Error() string { return "export " + e.Op + ": " + e.Err.Error() }

func (e *ExportError) Unwrap() error { return e.Err }
