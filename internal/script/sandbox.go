package script

import (
	"github.com/Shopify/go-lua"
)

// openSandbox loads only the safe parts of the Lua standard library.
// Report scripts transform tabular files; they get strings, tables and
// math, not process control or arbitrary filesystem access.
func openSandbox(l *lua.State) {
	lua.Require(l, "_G", lua.BaseOpen, true)
	l.Pop(1)
	lua.Require(l, "string", lua.StringOpen, true)
	l.Pop(1)
	lua.Require(l, "table", lua.TableOpen, true)
	l.Pop(1)
	lua.Require(l, "math", lua.MathOpen, true)
	l.Pop(1)

	lua.Require(l, "os", lua.OSOpen, true)
	l.Pop(1)
	l.Global("os")
	for _, name := range []string{"execute", "exit", "getenv", "remove", "rename", "setlocale", "tmpname"} {
		l.PushNil()
		l.SetField(-2, name)
	}
	l.Pop(1)

	// No dynamic code loading from inside a plugin.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		l.PushNil()
		l.SetGlobal(name)
	}
}
