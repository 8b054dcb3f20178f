package app

import (
	"os"
	"sync"
)

// TestModeEnv is set to "1" by the shared test bootstrap.
const TestModeEnv = "RENTAL_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(TestModeEnv) == "1"
})

// InTestMode reports whether the process was started by go test. The entry
// point returns before dialling Redis or PostgreSQL when it is.
func InTestMode() bool {
	return testMode()
}
