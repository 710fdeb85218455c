package app

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// TestModeEnv names the variable that switches binaries into test mode.
const TestModeEnv = "LOTLEDGER_TEST_MODE"

var testMode struct {
	once sync.Once
	on   atomic.Bool
}

// InTestMode reports whether the application should skip runtime side effects
// such as cache invalidation listeners and schema migration.
func InTestMode() bool {
	testMode.once.Do(RefreshTestMode)
	return testMode.on.Load()
}

// RefreshTestMode re-reads TestModeEnv after the environment changed. Any of
// 1, true or yes enables test mode.
func RefreshTestMode() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(TestModeEnv))) {
	case "1", "true", "yes":
		testMode.on.Store(true)
	default:
		testMode.on.Store(false)
	}
}
