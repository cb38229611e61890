package hook

import (
	"os"

	"golang.org/x/arch/x86/x86asm"
)

// bytes decoded when looking at a target, enough for any run of
// instructions covering Size
const inspectWindow = 32

var pageSize = uintptr(os.Getpagesize())

// inspectLength is the number of bytes at target that can be read for
// inspection: inspectWindow, cut at the end of the target's page, but never
// less than the Size bytes the trampoline overwrites anyway.
func inspectLength(target, pageSize uintptr) uintptr {
	return max(Size, min(inspectWindow, pageSize-target%pageSize))
}

// Prologue describes the instructions a trampoline overwrites.
type Prologue struct {
	// bytes up to the first instruction boundary at or after Size
	Length int
	// false when a displaced instruction addresses relative to RIP
	Relocatable  bool
	Instructions []string
}

// Inspect decodes the instructions at the start of code until they cover
// Size bytes.
func Inspect(code []byte) (Prologue, error) {
	p := Prologue{Relocatable: true}
	src := code
	for p.Length < Size {
		inst, err := x86asm.Decode(src, 64)
		if err != nil {
			return p, err
		}
		p.Length += inst.Len
		p.Relocatable = p.Relocatable && relocatable(inst)
		p.Instructions = append(p.Instructions, inst.String())
		src = src[inst.Len:]
	}
	return p, nil
}

func relocatable(inst x86asm.Inst) bool {
	for _, a := range inst.Args {
		if a == nil {
			break
		}
		if mem, ok := a.(x86asm.Mem); ok && mem.Base == x86asm.RIP {
			return false
		}
		if _, ok := a.(x86asm.Rel); ok {
			return false
		}
	}
	return true
}
