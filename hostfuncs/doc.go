// Package hostfuncs models the host side of the proxy-wasm ABI in plain Go:
// request buffers, header maps, key/value stores, callable services and
// foreign functions. It has no WASM runtime dependency, so the same State
// backs the native test emulator and the wazero runtime.
package hostfuncs
