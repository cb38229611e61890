package exitguard

import (
	"unsafe"

	"github.com/k2io/bootstrapper/hook"
	"github.com/k2io/bootstrapper/internal/platform"
	"github.com/stretchr/testify/mock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newCode(fill byte) []byte {
	code := make([]byte, 64)
	for i := range code {
		code[i] = 0x90
	}
	code[0] = fill
	return code
}

func addressOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

var _ = Describe("Guard on amd64", func() {
	var (
		p          *platformMock
		g          *Guard
		exitCode   []byte
		underscore []byte
		terminate  []byte
		foreignRan bool
	)

	BeforeEach(func() {
		exitCode = newCode(0x55)
		underscore = newCode(0x53)
		terminate = newCode(0x41)
		foreignRan = false

		p = &platformMock{}
		p.On("Protect", mock.Anything, uintptr(hook.Size), mock.Anything).Return(platform.ReadExecute, nil)
		p.On("FlushInstructionCache", mock.Anything, uintptr(hook.Size)).Return(nil)
		p.On("ResolveLibrary", "kernel32.dll").Return(platform.Library(0x1000), nil)
		p.On("ResolveSymbol", platform.ProcessImage, "exit").Return(addressOf(exitCode), nil)
		p.On("ResolveSymbol", platform.ProcessImage, "_exit").Return(addressOf(underscore), nil)
		p.On("ResolveSymbol", platform.ProcessImage, "quick_exit").Return(uintptr(0), platform.ErrSymbolNotFound)
		p.On("ResolveSymbol", platform.Library(0x1000), "TerminateProcess").Return(addressOf(terminate), nil)

		g = newGuard(p, true, []primitive{
			{name: "exit", detour: func() uintptr { return 0x7000 }},
			{name: "quick_exit", detour: func() uintptr { return 0x7100 }},
			{name: "_exit", detour: func() uintptr { return 0x7200 }},
			{image: "kernel32.dll", name: "TerminateProcess", detour: func() uintptr { return 0x7300 }},
		})
	})

	Describe("Install", func() {
		It("hooks every resolved primitive and skips the missing one", func() {
			g.Install()

			Expect(g.State()).To(Equal(Installed))
			Expect(g.records).To(HaveLen(3))
			Expect(g.records).To(HaveKey("exit"))
			Expect(g.records).To(HaveKey("_exit"))
			Expect(g.records).To(HaveKey("TerminateProcess"))
			Expect(g.records).ToNot(HaveKey("quick_exit"))

			Expect(exitCode[:2]).To(Equal([]byte{0x48, 0xb8}))
			Expect(underscore[:2]).To(Equal([]byte{0x48, 0xb8}))
			Expect(g.records["exit"].Detour).To(Equal(uintptr(0x7000)))
		})

		It("does nothing when already installed", func() {
			g.Install()
			g.Install()

			p.AssertNumberOfCalls(GinkgoT(), "ResolveLibrary", 1)
		})
	})

	Describe("Uninstall", func() {
		It("restores the original bytes and can be repeated", func() {
			g.Install()

			g.Uninstall()
			g.Uninstall()

			Expect(g.State()).To(Equal(Uninstalled))
			Expect(exitCode).To(Equal(newCode(0x55)))
			Expect(underscore).To(Equal(newCode(0x53)))
			Expect(terminate).To(Equal(newCode(0x41)))
		})
	})

	Describe("passThrough", func() {
		It("runs the original code unhooked and rehooks afterwards", func() {
			g.Install()
			hooked := append([]byte(nil), terminate[:hook.Size]...)

			result, err := g.passThrough("TerminateProcess", func(target uintptr) uintptr {
				foreignRan = true
				Expect(target).To(Equal(addressOf(terminate)))
				Expect(terminate).To(Equal(newCode(0x41)))
				return 42
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(uintptr(42)))
			Expect(foreignRan).To(BeTrue())
			Expect(terminate[:hook.Size]).To(Equal(hooked))
			Expect(g.records["TerminateProcess"].Installed).To(BeTrue())
		})
	})
})
