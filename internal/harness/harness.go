// Package harness describes and runs local scenarios against compiled
// proxy-wasm guests.
//
// A harness file names the module under test, the host data it sees and a
// list of requests with their expected outcome:
//
//	wasm: client.wasm
//	plugin_configuration:
//	  target_service: id_2
//	services:
//	  - id: id_2
//	    wasm: server.wasm
//	state:
//	  state_demo:
//	    Foo: "3"
//	requests:
//	  - name: inventory
//	    body: name=Foo
//	    expect:
//	      body: "There are 3 inventories for Foo.\n"
package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mosn/layotto/application/config"
	"github.com/mosn/layotto/application/schema"
)

// File is a harness file.
type File struct {
	Wasm                string                       `yaml:"wasm" json:"wasm" validate:"required" jsonschema:"description=Path of the module under test relative to the harness file"`
	VMConfiguration     string                       `yaml:"vm_configuration,omitempty" json:"vm_configuration,omitempty" jsonschema:"description=Raw VmConfiguration buffer"`
	PluginConfiguration map[string]any               `yaml:"plugin_configuration,omitempty" json:"plugin_configuration,omitempty" jsonschema:"description=Plugin configuration handed to the guest as JSON"`
	State               map[string]map[string]string `yaml:"state,omitempty" json:"state,omitempty" jsonschema:"description=Values of each state store by key"`
	Services            []Service                    `yaml:"services,omitempty" json:"services,omitempty" validate:"dive"`
	LayottoFunctions    bool                         `yaml:"layotto_functions,omitempty" json:"layotto_functions,omitempty" jsonschema:"description=Register the SayHello and State foreign functions"`
	Requests            []Request                    `yaml:"requests" json:"requests" validate:"required,min=1,dive"`

	// dir is where relative paths are resolved from.
	dir string
}

// Service answers proxy_invoke_service for one id, either with a fixed
// response or by running another module.
type Service struct {
	ID       string `yaml:"id" json:"id" validate:"required"`
	Wasm     string `yaml:"wasm,omitempty" json:"wasm,omitempty" validate:"required_without=Response,excluded_with=Response"`
	Response string `yaml:"response,omitempty" json:"response,omitempty"`
}

// Request is one HTTP exchange.
type Request struct {
	Name     string            `yaml:"name" json:"name" validate:"required"`
	Headers  map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body     string            `yaml:"body,omitempty" json:"body,omitempty"`
	Trailers map[string]string `yaml:"trailers,omitempty" json:"trailers,omitempty"`
	Expect   Expect            `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Expect is the outcome a Request must produce.
type Expect struct {
	Body        *string  `yaml:"body,omitempty" json:"body,omitempty" jsonschema:"description=Exact response body; omit to skip the check"`
	Paused      bool     `yaml:"paused,omitempty" json:"paused,omitempty" jsonschema:"description=Whether any callback returns Pause"`
	LogsContain []string `yaml:"logs_contain,omitempty" json:"logs_contain,omitempty" jsonschema:"description=Substrings that must each appear in a guest log line"`
}

// Parse decodes and validates a harness file. Relative paths resolve
// against dir.
func Parse(data []byte, dir string) (*File, error) {
	var f File
	if err := config.Decode(data, &f); err != nil {
		return nil, err
	}
	f.dir = dir
	return &f, nil
}

// Load reads and parses the harness file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read harness file: %w", err)
	}
	f, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Schema returns the JSON Schema of harness files.
func Schema() ([]byte, error) {
	return schema.GenerateSchema(&File{}, schema.WithFieldNameTag("yaml"), schema.WithTitle("proxywasm-run harness"))
}

func (f *File) resolve(path string) string {
	if filepath.IsAbs(path) || f.dir == "" {
		return path
	}
	return filepath.Join(f.dir, path)
}

// pairs orders a header map by name so runs are reproducible.
func pairs(m map[string]string) [][2]string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, m[k]})
	}
	return out
}
