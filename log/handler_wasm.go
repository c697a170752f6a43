//go:build wasip1

package log

import (
	"github.com/mosn/layotto/domain/entities"
	"github.com/mosn/layotto/proxywasm"
)

func emit(level entities.LogLevel, message string) error {
	return proxywasm.Log(level, message)
}
