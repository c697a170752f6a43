package entities

import "fmt"

// Status is the outcome code returned by every host import.
type Status uint32

const (
	StatusOK                   Status = 0
	StatusNotFound             Status = 1
	StatusBadArgument          Status = 2
	StatusSerializationFailure Status = 3
	StatusParseFailure         Status = 4
	StatusBadExpression        Status = 5
	StatusInvalidMemoryAccess  Status = 6
	StatusEmpty                Status = 7
	StatusCasMismatch          Status = 8
	StatusResultMismatch       Status = 9
	StatusInternalFailure      Status = 10
	StatusBrokenConnection     Status = 11
	StatusUnimplemented        Status = 12
)

var statusNames = map[Status]string{
	StatusOK:                   "Ok",
	StatusNotFound:             "NotFound",
	StatusBadArgument:          "BadArgument",
	StatusSerializationFailure: "SerializationFailure",
	StatusParseFailure:         "ParseFailure",
	StatusBadExpression:        "BadExpression",
	StatusInvalidMemoryAccess:  "InvalidMemoryAccess",
	StatusEmpty:                "Empty",
	StatusCasMismatch:          "CasMismatch",
	StatusResultMismatch:       "ResultMismatch",
	StatusInternalFailure:      "InternalFailure",
	StatusBrokenConnection:     "BrokenConnection",
	StatusUnimplemented:        "Unimplemented",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint32(s))
}
