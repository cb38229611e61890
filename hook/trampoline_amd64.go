package hook

// trampoline encodes
//
//	MOV RAX, detour
//	JMP RAX
//
// padded with NOPs to Size. RAX is caller-saved and holds no argument in
// either the System V or the Microsoft x64 convention.
func trampoline(detour uintptr) ([]byte, error) {
	addr := detour
	return []byte{
		0x48, 0xb8, // MOV RAX, addr
		byte(addr), byte(addr >> 8), // .
		byte(addr >> 16), byte(addr >> 24), // .
		byte(addr >> 32), byte(addr >> 40), // .
		byte(addr >> 48), byte(addr >> 56), // .
		0xff, 0xe0, // JMP RAX
		0x90, 0x90, // NOP
	}, nil
}
