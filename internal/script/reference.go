// Package script loads and runs Lua plugin scripts. A Reference is handed
// out at discovery time without touching the script's code; the code is
// loaded into a fresh sandboxed interpreter only when a run actually starts.
package script

import (
	"fmt"
	"os"

	"github.com/Shopify/go-lua"

	"github.com/opskit/toolbox/internal/logger"
	toolboxerrors "github.com/opskit/toolbox/pkg/errors"
)

// EntryPoint is the global function every plugin must define.
const EntryPoint = "main"

// Reference is an opaque handle to a plugin's executable code. Holding one
// implies nothing about whether the script even compiles.
type Reference struct {
	Path string
}

// NewReference creates a Reference for the script at path.
func NewReference(path string) Reference {
	return Reference{Path: path}
}

// Load reads the script, evaluates its top level in a fresh sandboxed
// interpreter and checks the plugin contract. Called once per run; a fresh
// state per run means edits to a script are picked up on the next run and
// no state leaks between runs.
func (r Reference) Load(log *logger.Logger) (*Program, error) {
	content, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, toolboxerrors.NewPluginError(r.Path, err)
	}

	l := lua.NewState()
	openSandbox(l)
	registerBuiltins(l, log)

	if err := lua.DoString(l, string(content)); err != nil {
		return nil, toolboxerrors.NewPluginError(r.Path, err)
	}

	l.Global(EntryPoint)
	if l.TypeOf(-1) != lua.TypeFunction {
		l.Pop(1)
		return nil, toolboxerrors.NewPluginError(r.Path, fmt.Errorf("plugin does not define a %q function", EntryPoint))
	}
	l.Pop(1)

	return &Program{state: l, path: r.Path}, nil
}

// Program is a loaded plugin ready to be invoked.
type Program struct {
	state *lua.State
	path  string
}

// Call invokes the plugin's entry point with one named argument per
// required-file key and returns its single result. Errors raised anywhere
// inside the script come back as ExecutionError values, never as faults.
func (p *Program) Call(paths map[string]string) (any, error) {
	l := p.state

	l.Global(EntryPoint)
	l.NewTable()
	for key, path := range paths {
		l.PushString(path)
		l.SetField(-2, key)
	}

	if err := l.ProtectedCall(1, 1, 0); err != nil {
		return nil, toolboxerrors.NewExecutionError(p.path, err)
	}

	result := pullValue(l, -1)
	l.Pop(1)
	return result, nil
}
