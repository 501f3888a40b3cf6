package app

import (
	"os"
	"strconv"
)

const testModeEnv = "INVENTARIO_TEST_MODE"

// InTestMode reports whether INVENTARIO_TEST_MODE is set to a true value. The
// commands exit before dialing Postgres or Redis when it is.
func InTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	return err == nil && on
}
