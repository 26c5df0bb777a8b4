package debug

import (
	"fmt"
	"log"
	"time"
)

// Output logs a formatted trace line when tracing is enabled.
func Output(enabled bool, format string, args ...interface{}) {
	if !enabled {
		return
	}
	message := fmt.Sprintf(format, args...)
	log.Printf("[%s] %s", time.Now().Format("15:04:05.000"), message)
}

// Section logs a named section marker when tracing is enabled.
func Section(enabled bool, name string) {
	if enabled {
		log.Printf("=== %s ===", name)
	}
}

// Timing logs the duration of an operation. Call it with defer:
//
//	defer debug.Timing(enabled, "phase 1")()
func Timing(enabled bool, operation string) func() {
	if !enabled {
		return func() {}
	}
	start := time.Now()
	Output(enabled, "starting: %s", operation)
	return func() {
		Output(enabled, "completed: %s (took %v)", operation, time.Since(start))
	}
}
