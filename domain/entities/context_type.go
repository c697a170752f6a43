package entities

import "fmt"

// ContextType is declared by a root context to say which kind of child
// contexts it produces.
type ContextType uint32

const (
	ContextTypeHttpContext   ContextType = 0
	ContextTypeStreamContext ContextType = 1
)

func (t ContextType) String() string {
	switch t {
	case ContextTypeHttpContext:
		return "HttpContext"
	case ContextTypeStreamContext:
		return "StreamContext"
	default:
		return fmt.Sprintf("ContextType(%d)", uint32(t))
	}
}
