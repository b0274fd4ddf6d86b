package errs

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
)

const (
	ErrCodeUnknownError         string = "UNKNOWN_ERROR"
	ErrCodeIllegalArgument      string = "ILLEGAL_ARGUMENT"
	ErrCodeInvalidConfiguration string = "INVALID_CONFIGURATION"
	ErrCodeQueueFull            string = "QUEUE_FULL"
	ErrCodeTaskPanic            string = "TASK_PANIC"
	ErrCodeFutureGetTimeout     string = "FUTURE_GET_TIMEOUT"
	ErrCodeServerShuttingDown   string = "SERVER_SHUTTING_DOWN"
)

var (
	ErrUnknownError         *Err = NewErrfCode(ErrCodeUnknownError, "Unknown Error")
	ErrIllegalArgument      *Err = NewErrfCode(ErrCodeIllegalArgument, "Illegal Argument")
	ErrInvalidConfiguration *Err = NewErrfCode(ErrCodeInvalidConfiguration, "Invalid Configuration")
	ErrQueueFull            *Err = NewErrfCode(ErrCodeQueueFull, "Task Queue Is Full")
	ErrTaskPanic            *Err = NewErrfCode(ErrCodeTaskPanic, "Task Panicked")
	ErrFutureGetTimeout     *Err = NewErrfCode(ErrCodeFutureGetTimeout, "Future Get Timeout")
	ErrServerShuttingDown   *Err = NewErrfCode(ErrCodeServerShuttingDown, "Server Shutting Down")
)

// Coded error with a captured stack trace.
//
// Errors sharing the same code are considered equal by [errors.Is], so predefined values like
// [ErrInvalidConfiguration] can be specialised with [Err.WithInternalMsg] or [Err.Wrap] and still be matched:
//
//	err := ErrInvalidConfiguration.WithInternalMsg("concurrency must be positive, got %d", n)
//	errors.Is(err, ErrInvalidConfiguration) // true
type Err struct {
	code        string // error code.
	msg         string // error message.
	internalMsg string // detail of the specific occurrence.
	stack       string
	err         error
}

func (e *Err) Cause() error {
	return e.err
}

func (e *Err) InternalMsg() string {
	return e.internalMsg
}

func (e *Err) Msg() string {
	return e.msg
}

func (e *Err) Code() string {
	return e.code
}

func (e *Err) HasCode() bool {
	return strings.TrimSpace(e.code) != ""
}

func (e *Err) StackTrace() string {
	return e.stack
}

// Create new *Err to wrap the cause error.
//
// If cause is nil, nil is returned.
func (e *Err) Wrap(cause error) error {
	if cause == nil {
		return nil
	}
	n := e.copyNew()
	n.err = cause
	n.withStack()
	return n
}

// Create new *Err to wrap the cause error with an internal message.
//
// If cause is nil, nil is returned.
func (e *Err) Wrapf(cause error, internalMsg string, args ...any) error {
	if cause == nil {
		return nil
	}
	n := e.copyNew()
	n.err = cause
	n.withStack()
	n.internalMsg = sprintf(internalMsg, args...)
	return n
}

func (e *Err) WithInternalMsg(msg string, args ...any) *Err {
	n := e.copyNew()
	n.withStack()
	n.internalMsg = sprintf(msg, args...)
	return n
}

func (e *Err) copyNew() *Err {
	n := new(Err)
	*n = *e
	return n
}

func (e *Err) Error() string {
	tok := make([]string, 0, 3)
	if e.msg != "" {
		tok = append(tok, e.msg)
	}
	if e.internalMsg != "" {
		tok = append(tok, e.internalMsg)
	}
	if e.err != nil {
		tok = append(tok, e.err.Error())
	}
	return strings.Join(tok, ", ")
}

// Returns true if target is *Err with the same non-empty code.
func (e *Err) Is(target error) bool {
	if te, ok := target.(*Err); ok && e.code != "" && e.code == te.code {
		return true
	}
	return false
}

func (e *Err) Unwrap() error {
	return e.err
}

func (e *Err) withStack() *Err {
	e.stack = stack(3)
	return e
}

// Create new *Err with message.
func NewErrf(msg string, args ...any) *Err {
	me := &Err{msg: sprintf(msg, args...)}
	me.withStack()
	return me
}

// Create new *Err with message and error code.
func NewErrfCode(code string, msg string, args ...any) *Err {
	me := &Err{msg: sprintf(msg, args...), code: code}
	me.withStack()
	return me
}

// Wrap an error to create new *Err with message.
//
// If err is nil, nil is returned.
func WrapErrf(err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	me := &Err{msg: sprintf(msg, args...), err: err}
	me.withStack()
	return me
}

// Wrap an error with stacktrace.
//
// If err is nil, nil is returned. If err is already *Err, it's returned as is.
func WrapErr(err error) error {
	if err == nil {
		return nil
	}
	if me, ok := err.(*Err); ok {
		return me
	}
	me := &Err{err: err}
	me.withStack()
	return me
}

// Convert value recovered from a panic to error.
//
// If v is an error, it's wrapped so that [errors.Is] still matches the original error.
func PanicErr(v any) error {
	if verr, ok := v.(error); ok {
		return ErrTaskPanic.Wrap(verr)
	}
	return ErrTaskPanic.WithInternalMsg("%v", v)
}

// Find the deepest stack trace recorded in the error chain.
func UnwrapErrStack(err error) (string, bool) {
	var stack string
	for ue := err; ue != nil; ue = errors.Unwrap(ue) {
		if me, ok := ue.(*Err); ok && me != nil {
			stack = me.stack
		}
	}
	return stack, stack != ""
}

func ErrorStackTrace(err error) string {
	if err == nil {
		return "nil"
	}
	m := err.Error()
	if st, ok := UnwrapErrStack(err); ok {
		m += st
	}
	return m
}

func sprintf(msg string, args ...any) string {
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

var stackPool = sync.Pool{
	New: func() any {
		v := make([]uintptr, 50)
		return &v
	},
}

func stack(n int) string {
	pcs := stackPool.Get().(*[]uintptr)
	defer func() {
		clear(*pcs)
		stackPool.Put(pcs)
	}()

	length := runtime.Callers(n, *pcs)
	if length < 1 {
		return ""
	}
	frames := runtime.CallersFrames((*pcs)[:length])
	b := strings.Builder{}
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("\n\t%v\n\t\t%v:%v", f.Function, f.File, f.Line))
		if !more {
			break
		}
	}
	return b.String()
}
