// Package imports declares the raw proxy-wasm host imports.
//
// Under wasip1 every function forwards to a //go:wasmimport declaration of
// module "env". In native builds the same functions forward to a Host
// installed with Install, which is how the emulator in testing/proxytest
// stands in for a real proxy. Results that carry data come back as a
// pointer/size pair obtained from abi.Allocate; decoding them is the job of
// the proxywasm package.
package imports
