package entities

import "fmt"

// BufferType selects the host-managed byte buffer a buffer call targets.
type BufferType uint32

const (
	BufferTypeHttpRequestBody      BufferType = 0
	BufferTypeHttpResponseBody     BufferType = 1
	BufferTypeDownstreamData       BufferType = 2
	BufferTypeUpstreamData         BufferType = 3
	BufferTypeHttpCallResponseBody BufferType = 4
	BufferTypeGrpcReceiveBuffer    BufferType = 5
	BufferTypeVMConfiguration      BufferType = 6
	BufferTypePluginConfiguration  BufferType = 7
	// BufferTypeCallData carries data of the current cross-function call,
	// e.g. the function id a module reports from proxy_get_id.
	BufferTypeCallData BufferType = 8
)

var bufferTypeNames = map[BufferType]string{
	BufferTypeHttpRequestBody:      "HttpRequestBody",
	BufferTypeHttpResponseBody:     "HttpResponseBody",
	BufferTypeDownstreamData:       "DownstreamData",
	BufferTypeUpstreamData:         "UpstreamData",
	BufferTypeHttpCallResponseBody: "HttpCallResponseBody",
	BufferTypeGrpcReceiveBuffer:    "GrpcReceiveBuffer",
	BufferTypeVMConfiguration:      "VmConfiguration",
	BufferTypePluginConfiguration:  "PluginConfiguration",
	BufferTypeCallData:             "CallData",
}

func (t BufferType) String() string {
	if name, ok := bufferTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("BufferType(%d)", uint32(t))
}

// MapType selects the host-managed key/value map a header call targets.
type MapType uint32

const (
	MapTypeHttpRequestHeaders          MapType = 0
	MapTypeHttpRequestTrailers         MapType = 1
	MapTypeHttpResponseHeaders         MapType = 2
	MapTypeHttpResponseTrailers        MapType = 3
	MapTypeGrpcReceiveInitialMetadata  MapType = 4
	MapTypeGrpcReceiveTrailingMetadata MapType = 5
	MapTypeHttpCallResponseHeaders     MapType = 6
	MapTypeHttpCallResponseTrailers    MapType = 7
)

var mapTypeNames = map[MapType]string{
	MapTypeHttpRequestHeaders:          "HttpRequestHeaders",
	MapTypeHttpRequestTrailers:         "HttpRequestTrailers",
	MapTypeHttpResponseHeaders:         "HttpResponseHeaders",
	MapTypeHttpResponseTrailers:        "HttpResponseTrailers",
	MapTypeGrpcReceiveInitialMetadata:  "GrpcReceiveInitialMetadata",
	MapTypeGrpcReceiveTrailingMetadata: "GrpcReceiveTrailingMetadata",
	MapTypeHttpCallResponseHeaders:     "HttpCallResponseHeaders",
	MapTypeHttpCallResponseTrailers:    "HttpCallResponseTrailers",
}

func (t MapType) String() string {
	if name, ok := mapTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MapType(%d)", uint32(t))
}
