package app

import (
	"os"
	"sync"
	"sync/atomic"
)

// testModeEnv is set by the testing package so that the web and worker
// binaries return before dialing postgres or redis.
const testModeEnv = "CLUBHOUSE_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

func loadTestMode() {
	testMode.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether cmd entrypoints should skip connecting to
// backing services.
func InTestMode() bool {
	testModeOnce.Do(loadTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads CLUBHOUSE_TEST_MODE.
func RefreshTestMode() {
	loadTestMode()
}
