package colibri

import "errors"

// ErrorLevel classifies how severe a reported condition is (§7 "Error
// levels").
type ErrorLevel int

const (
	LevelNotice ErrorLevel = iota
	LevelWarning
	LevelError
	LevelFatal
)

// ErrorDomain groups errors by the subsystem that raised them (§7 "Error
// domains").
type ErrorDomain int

const (
	DomainGeneric ErrorDomain = iota
	DomainMemory
	DomainContainer
	DomainConcurrency
)

// Error is Colibri's structured error type: every internal failure that
// reaches a client passes through here rather than as a bare sentinel, so
// ErrorProc hooks can branch on level/domain without string matching (§7).
type Error struct {
	Level   ErrorLevel
	Domain  ErrorDomain
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(level ErrorLevel, domain ErrorDomain, message string, cause error) *Error {
	return &Error{Level: level, Domain: domain, Message: message, Cause: cause}
}

// ErrNotInRegion is a plain sentinel error; nothing in the library returns
// it. Preserve and Release outside an Enter/Leave pair return
// gc.ErrProtectViolation, and container operations do not check the region.
var ErrNotInRegion = errors.New("colibri: operation requires a GC-protected region")

// ErrorProc is the shape of a structured-error hook (§7 "Error
// reporting"). New installs none, and WithErrorHook takes a func(error),
// not an ErrorProc; DefaultErrorProc is one ready-made ErrorProc.
type ErrorProc func(*Error)

// DefaultErrorProc discards notices and warnings and panics on fatal
// errors, matching the teacher's default logging posture of "don't swallow
// what you can't recover from."
func DefaultErrorProc(e *Error) {
	if e.Level == LevelFatal {
		panic(e)
	}
}

// wrapMemory adapts a raw allocator error (gc.ErrOutOfPages,
// platform.ErrOutOfMemory) into the library's structured Error type.
func wrapMemory(cause error) *Error {
	return newError(LevelError, DomainMemory, "colibri: allocation failed", cause)
}
