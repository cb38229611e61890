package exitguard

import (
	"github.com/k2io/bootstrapper/internal/platform"
)

// exit runs atexit handlers first, _exit ends the process right away; both
// only ever end the calling process.
func (g *Guard) defaultPrimitives() []primitive {
	return []primitive{
		{name: "exit", detour: func() uintptr { return platform.NewCallback(g.block("exit")) }},
		{name: "_exit", detour: func() uintptr { return platform.NewCallback(g.block("_exit")) }},
	}
}
