// Package entities provides the vocabulary shared by the guest and the host.
// Every numeric value in this package is part of the proxy-wasm ABI and is
// compared verbatim by the host, so constants must never be renumbered.
package entities
