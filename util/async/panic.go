package async

import (
	"runtime/debug"

	"github.com/curtisnewbie/taskq/util/errs"
	"github.com/curtisnewbie/taskq/util/utillog"
)

func CapturePanicErr(op func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = errs.PanicErr(v)
		}
	}()
	op()
	return nil
}

func CapturePanic[T any](op func() (T, error)) (t T, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = errs.PanicErr(v)
		}
	}()
	return op()
}

func PanicSafeFunc(op func()) func() {
	return func() {
		defer recoverPanic()
		op()
	}
}

func PanicSafeRun(op func()) {
	PanicSafeFunc(op)()
}

func recoverPanic() {
	if v := recover(); v != nil {
		utillog.ErrorLog("panic recovered, %v\n%v", v, string(debug.Stack()))
	}
}
