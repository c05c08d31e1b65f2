package primegen

import (
	"runtime/debug"
)

// goSafe runs fn in a goroutine and logs instead of crashing on panic.
func goSafe(log *Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered in worker", "panic", r, "stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
