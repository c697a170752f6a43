package proxywasm

import (
	"math"

	"github.com/mosn/layotto/domain/entities"
)

// GetHttpRequestHeader returns the value of the request header name.
func GetHttpRequestHeader(name string) (string, bool, error) {
	return GetMapValue(entities.MapTypeHttpRequestHeaders, name)
}

// SetHttpResponseHeader sets the response header name to value.
func SetHttpResponseHeader(name, value string) error {
	return SetMapValue(entities.MapTypeHttpResponseHeaders, name, value)
}

// GetHttpRequestBody reads size bytes of the request body from start.
func GetHttpRequestBody(start, size int) ([]byte, bool, error) {
	return GetBuffer(entities.BufferTypeHttpRequestBody, start, size)
}

// SetHttpResponseBody replaces the response body with body.
func SetHttpResponseBody(body []byte) error {
	return SetBuffer(entities.BufferTypeHttpResponseBody, 0, body)
}

// SetCallData publishes data in the CallData buffer, e.g. the id a function
// reports from proxy_get_id.
func SetCallData(data []byte) error {
	return SetBuffer(entities.BufferTypeCallData, 0, data)
}

// GetPluginConfiguration returns the whole plugin configuration.
func GetPluginConfiguration() ([]byte, bool, error) {
	return GetBuffer(entities.BufferTypePluginConfiguration, 0, math.MaxInt32)
}

// GetVMConfiguration returns the whole VM configuration.
func GetVMConfiguration() ([]byte, bool, error) {
	return GetBuffer(entities.BufferTypeVMConfiguration, 0, math.MaxInt32)
}
