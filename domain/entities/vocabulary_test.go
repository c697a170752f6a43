package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The host compares these values bit for bit.
func TestABIValues(t *testing.T) {
	tests := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"status ok", uint32(StatusOK), 0},
		{"status not found", uint32(StatusNotFound), 1},
		{"status bad argument", uint32(StatusBadArgument), 2},
		{"status parse failure", uint32(StatusParseFailure), 4},
		{"status empty", uint32(StatusEmpty), 7},
		{"status cas mismatch", uint32(StatusCasMismatch), 8},
		{"status internal failure", uint32(StatusInternalFailure), 10},
		{"log trace", uint32(LogLevelTrace), 0},
		{"log critical", uint32(LogLevelCritical), 5},
		{"action continue", uint32(ActionContinue), 0},
		{"action pause", uint32(ActionPause), 1},
		{"context type http", uint32(ContextTypeHttpContext), 0},
		{"buffer request body", uint32(BufferTypeHttpRequestBody), 0},
		{"buffer response body", uint32(BufferTypeHttpResponseBody), 1},
		{"buffer plugin configuration", uint32(BufferTypePluginConfiguration), 7},
		{"buffer call data", uint32(BufferTypeCallData), 8},
		{"map request headers", uint32(MapTypeHttpRequestHeaders), 0},
		{"map response trailers", uint32(MapTypeHttpResponseTrailers), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "InternalFailure", StatusInternalFailure.String())
	assert.Equal(t, "Status(42)", Status(42).String())
	assert.Equal(t, "Pause", ActionPause.String())
	assert.Equal(t, "Action(7)", Action(7).String())
	assert.Equal(t, "error", LogLevelError.String())
	assert.Equal(t, "HttpContext", ContextTypeHttpContext.String())
	assert.Equal(t, "CallData", BufferTypeCallData.String())
	assert.Equal(t, "HttpRequestHeaders", MapTypeHttpRequestHeaders.String())
	assert.Equal(t, "MapType(99)", MapType(99).String())
}
