//go:build wasip1

package plugin

// The export table. Every function forwards to the Entry of the default
// Dispatcher; booleans cross the boundary as 0 or 1.

//go:wasmexport proxy_abi_version_0_2_0
func proxyABIVersion() {
	ABIVersion()
}

//go:wasmexport proxy_on_memory_allocate
func proxyOnMemoryAllocate(size uint32) uint32 {
	return OnMemoryAllocate(size)
}

//go:wasmexport malloc
func malloc(size uint32) uint32 {
	return OnMemoryAllocate(size)
}

//go:wasmexport proxy_on_context_create
func proxyOnContextCreate(contextID, parentID uint32) {
	EntryFor(Default()).OnContextCreate(contextID, parentID)
}

//go:wasmexport proxy_on_request_headers
func proxyOnRequestHeaders(contextID, numHeaders, endOfStream uint32) uint32 {
	return uint32(EntryFor(Default()).OnRequestHeaders(contextID, int(numHeaders), endOfStream != 0))
}

//go:wasmexport proxy_on_request_body
func proxyOnRequestBody(contextID, bodySize, endOfStream uint32) uint32 {
	return uint32(EntryFor(Default()).OnRequestBody(contextID, int(bodySize), endOfStream != 0))
}

//go:wasmexport proxy_on_request_trailers
func proxyOnRequestTrailers(contextID, numTrailers uint32) uint32 {
	return uint32(EntryFor(Default()).OnRequestTrailers(contextID, int(numTrailers)))
}

//go:wasmexport proxy_on_vm_start
func proxyOnVMStart(contextID, vmConfigurationSize uint32) uint32 {
	return boolToUint32(EntryFor(Default()).OnVMStart(contextID, int(vmConfigurationSize)))
}

//go:wasmexport proxy_on_configure
func proxyOnConfigure(contextID, pluginConfigurationSize uint32) uint32 {
	return boolToUint32(EntryFor(Default()).OnConfigure(contextID, int(pluginConfigurationSize)))
}

//go:wasmexport proxy_on_done
func proxyOnDone(contextID uint32) uint32 {
	return boolToUint32(EntryFor(Default()).OnDone(contextID))
}

//go:wasmexport proxy_on_delete
func proxyOnDelete(contextID uint32) {
	EntryFor(Default()).OnDelete(contextID)
}

//go:wasmexport proxy_get_id
func proxyGetID() {
	EntryFor(Default()).OnGetID()
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
