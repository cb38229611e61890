// Package hook writes and removes 14 byte absolute-jump trampolines at the
// start of native functions.
//
// The engine takes no locks. A target address must have a single writer at a
// time; distinct addresses may be hooked independently. Hooked functions are
// expected to be idle while their first bytes are rewritten, which holds for
// the process lifecycle entry points this package is used on.
package hook

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/k2io/bootstrapper/internal/platform"
)

// Size is the number of bytes a trampoline occupies at the target.
const Size = 14

// Memory is the part of the platform the engine needs to patch code.
type Memory interface {
	Protect(addr, size uintptr, prot platform.Protection) (platform.Protection, error)
	FlushInstructionCache(addr, size uintptr) error
}

// Record describes one trampoline.
type Record struct {
	// the patched code address
	Target uintptr
	// where the trampoline jumps to
	Detour uintptr
	// the bytes at Target before the first install
	Backup [Size]byte
	// whether the trampoline currently occupies Target
	Installed bool
}

var (
	// ErrNullAddress means target or detour is zero
	ErrNullAddress = errors.New("null hook address")
	// ErrDoubleHook means the target already starts with a trampoline
	ErrDoubleHook = errors.New("double hook")
	// ErrUnsupportedArch means no trampoline encoding exists for GOARCH
	ErrUnsupportedArch = errors.New("unsupported architecture")
)

// Engine installs and restores trampolines through a Memory.
type Engine struct {
	mem Memory
}

func NewEngine(mem Memory) *Engine {
	return &Engine{mem: mem}
}

// Install saves the first Size bytes of target and replaces them with a jump
// to detour. When the pages cannot be made writable nothing is written and
// the error is returned.
func (e *Engine) Install(target, detour uintptr) (*Record, error) {
	if target == 0 || detour == 0 {
		return nil, ErrNullAddress
	}
	code, err := trampoline(detour)
	if err != nil {
		return nil, err
	}
	if isTrampoline(platform.Bytes(target, Size)) {
		return nil, fmt.Errorf("%#x: %w", target, ErrDoubleHook)
	}

	if p, err := Inspect(platform.Bytes(target, inspectLength(target, pageSize))); err == nil {
		slog.Debug("Displacing prologue", "target", fmt.Sprintf("%#x", target),
			"length", p.Length, "relocatable", p.Relocatable, "instructions", p.Instructions)
	}

	r := &Record{Target: target, Detour: detour}
	if err := e.patch(target, code, r.Backup[:]); err != nil {
		return nil, err
	}
	r.Installed = true
	return r, nil
}

// Reinstall writes the trampoline of a restored record again, keeping the
// backup taken by Install.
func (e *Engine) Reinstall(r *Record) error {
	if r == nil || r.Target == 0 || r.Detour == 0 {
		return ErrNullAddress
	}
	if r.Installed {
		return fmt.Errorf("%#x: %w", r.Target, ErrDoubleHook)
	}
	code, err := trampoline(r.Detour)
	if err != nil {
		return err
	}
	if err := e.patch(r.Target, code, nil); err != nil {
		return err
	}
	r.Installed = true
	return nil
}

// Restore writes the backup bytes back. A nil or not installed record is
// left alone and no memory is touched.
func (e *Engine) Restore(r *Record) error {
	if r == nil || !r.Installed {
		return nil
	}
	if err := e.patch(r.Target, r.Backup[:], nil); err != nil {
		return err
	}
	r.Installed = false
	return nil
}

// patch copies code to target, saving the previous bytes to backup when it
// is not nil. Only a failure to unprotect is returned: after that point the
// bytes are in place.
func (e *Engine) patch(target uintptr, code []byte, backup []byte) error {
	old, err := e.mem.Protect(target, Size, platform.ReadWriteExecute)
	if err != nil {
		return fmt.Errorf("cannot unprotect %#x: %w", target, err)
	}

	dst := platform.Bytes(target, Size)
	if backup != nil {
		copy(backup, dst)
	}
	copy(dst, code)

	if _, err := e.mem.Protect(target, Size, old); err != nil {
		slog.Warn("Cannot restore page protection", "target", fmt.Sprintf("%#x", target), "error", err)
	}
	if err := e.mem.FlushInstructionCache(target, Size); err != nil {
		slog.Warn("Cannot flush instruction cache", "target", fmt.Sprintf("%#x", target), "error", err)
	}
	return nil
}

func isTrampoline(b []byte) bool {
	return b[0] == 0x48 && b[1] == 0xb8 && b[10] == 0xff && b[11] == 0xe0
}
