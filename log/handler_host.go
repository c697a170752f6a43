//go:build !wasip1

package log

import (
	"fmt"
	"os"

	"github.com/mosn/layotto/domain/entities"
	"github.com/mosn/layotto/internal/imports"
	"github.com/mosn/layotto/proxywasm"
)

// emit goes through proxy_log when a host emulator is installed and to
// stderr otherwise, so native programs importing the package still log.
func emit(level entities.LogLevel, message string) error {
	if imports.Installed() {
		return proxywasm.Log(level, message)
	}
	_, err := fmt.Fprintf(os.Stderr, "[%s] %s\n", level, message)
	return err
}
