// Package testing puts the process in test mode when blank-imported from a
// test, so command entry points and migrations stay inert.
package testing

import "os"

var defaults = map[string]string{
	"INVENTARIO_TEST_MODE": "1",
	"LOG_FORMAT":           "text",
	"PG_AUTO_MIGRATE":      "false",
}

func init() {
	for key, value := range defaults {
		if _, ok := os.LookupEnv(key); !ok {
			_ = os.Setenv(key, value)
		}
	}
}
