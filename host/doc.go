// Package host runs compiled proxy-wasm guests outside of a proxy.
//
// It uses wazero to instantiate a module, answers the env.proxy_* imports
// from a hostfuncs.State and drives the guest's lifecycle exports the way
// Layotto does: root context creation, VM start, configuration, then one
// HTTP context per request. Data returned to the guest is written into
// memory obtained from the guest's proxy_on_memory_allocate export.
package host
