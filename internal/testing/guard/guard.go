// Package guard switches the process into test mode when imported: binaries
// under test skip server startup and schema migration, and configuration
// ignores any .env file in the working directory.
package guard

import "os"

func init() {
	if os.Getenv("LOTLEDGER_TEST_MODE") == "" {
		_ = os.Setenv("LOTLEDGER_TEST_MODE", "1")
	}
	if os.Getenv("LOTLEDGER_ENV_FILE") == "" {
		_ = os.Setenv("LOTLEDGER_ENV_FILE", os.DevNull)
	}
}
