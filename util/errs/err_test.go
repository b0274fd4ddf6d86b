package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestErrIsByCode(t *testing.T) {
	err := ErrInvalidConfiguration.WithInternalMsg("concurrency must be positive, got %d", 0)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("should match by code, %v", err)
	}
	if errors.Is(err, ErrQueueFull) {
		t.Fatalf("should not match a different code, %v", err)
	}
	if err.InternalMsg() != "concurrency must be positive, got 0" {
		t.Fatalf("unexpected internal msg: %v", err.InternalMsg())
	}
	if err.StackTrace() == "" {
		t.Fatal("stack trace should be captured")
	}
	t.Log(err)
}

func TestErrWrap(t *testing.T) {
	cause := errors.New("boom")
	err := ErrUnknownError.Wrapf(cause, "while running task %v", 1)
	if !errors.Is(err, cause) {
		t.Fatalf("cause should be reachable, %v", err)
	}
	if !errors.Is(err, ErrUnknownError) {
		t.Fatalf("should match code, %v", err)
	}
	if err.Error() != "Unknown Error, while running task 1, boom" {
		t.Fatalf("unexpected message: %v", err.Error())
	}
	if ErrUnknownError.Wrap(nil) != nil {
		t.Fatal("wrapping nil should return nil")
	}
	if WrapErrf(nil, "nothing") != nil {
		t.Fatal("wrapping nil should return nil")
	}
}

func TestPanicErr(t *testing.T) {
	predefined := errors.New("predefined")
	err := PanicErr(predefined)
	if !errors.Is(err, predefined) || !errors.Is(err, ErrTaskPanic) {
		t.Fatalf("panic err should match both the recovered error and ErrTaskPanic, %v", err)
	}

	err = PanicErr("oops")
	if !errors.Is(err, ErrTaskPanic) {
		t.Fatalf("should match ErrTaskPanic, %v", err)
	}
	if !strings.Contains(err.Error(), "oops") {
		t.Fatalf("message should contain the panic value, %v", err)
	}
}

func TestErrorStackTrace(t *testing.T) {
	if ErrorStackTrace(nil) != "nil" {
		t.Fatal("nil error should print nil")
	}
	err := WrapErr(errors.New("plain"))
	st := ErrorStackTrace(err)
	if !strings.HasPrefix(st, "plain") || !strings.Contains(st, "TestErrorStackTrace") {
		t.Fatalf("unexpected stack trace: %v", st)
	}
	if WrapErr(err) != err {
		t.Fatal("WrapErr should return *Err as is")
	}
}
