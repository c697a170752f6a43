// Command proxywasm-run runs compiled proxy-wasm functions locally.
//
// Usage:
//
//	proxywasm-run run client.yaml [more.yaml ...]
//	proxywasm-run id client.wasm
//	proxywasm-run schema > harness.schema.json
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
