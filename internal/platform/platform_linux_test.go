package platform_test

import (
	"unsafe"

	"github.com/k2io/bootstrapper/internal/platform"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("linux", func() {
	native := platform.Native()

	Describe("ResolveLibrary", func() {
		It("does not load a library that is not mapped", func() {
			_, err := native.ResolveLibrary(platform.HostingLibraryName)

			Expect(err).To(MatchError(platform.ErrLibraryNotFound))
		})
	})

	Describe("ResolveSymbol", func() {
		It("finds exit in the process namespace", func() {
			addr, err := native.ResolveSymbol(platform.ProcessImage, "exit")

			Expect(err).ToNot(HaveOccurred())
			Expect(addr).ToNot(BeZero())
		})

		It("returns error for an unknown symbol", func() {
			_, err := native.ResolveSymbol(platform.ProcessImage, "bootstrapper_no_such_symbol")

			Expect(err).To(MatchError(platform.ErrSymbolNotFound))
		})
	})

	Describe("Protect", func() {
		It("makes a code page writable and back", func() {
			page, err := unix.Mmap(-1, 0, unix.Getpagesize(), unix.PROT_READ|unix.PROT_EXEC, unix.MAP_ANON|unix.MAP_PRIVATE)
			Expect(err).ToNot(HaveOccurred())
			DeferCleanup(unix.Munmap, page)
			addr := uintptr(unsafe.Pointer(&page[0]))

			old, err := native.Protect(addr+8, 14, platform.ReadWriteExecute)
			Expect(err).ToNot(HaveOccurred())
			Expect(old).To(Equal(platform.ReadExecute))

			copy(platform.Bytes(addr+8, 2), []byte{0x48, 0xb8})
			Expect(page[8:10]).To(Equal([]byte{0x48, 0xb8}))

			_, err = native.Protect(addr+8, 14, old)
			Expect(err).ToNot(HaveOccurred())
			Expect(native.FlushInstructionCache(addr+8, 14)).To(Succeed())
		})
	})

	Describe("Protect on a data page", func() {
		It("reports the previous protection so it can be restored", func() {
			page, err := unix.Mmap(-1, 0, unix.Getpagesize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
			Expect(err).ToNot(HaveOccurred())
			DeferCleanup(unix.Munmap, page)
			addr := uintptr(unsafe.Pointer(&page[0]))

			old, err := native.Protect(addr, 14, platform.ReadWriteExecute)
			Expect(err).ToNot(HaveOccurred())
			Expect(old).To(Equal(platform.Protection(unix.PROT_READ | unix.PROT_WRITE)))

			_, err = native.Protect(addr, 14, old)
			Expect(err).ToNot(HaveOccurred())

			page[0] = 0x90
			Expect(page[0]).To(Equal(byte(0x90)))
		})
	})

	Describe("strings", func() {
		It("round-trips through a char_t buffer", func() {
			p := platform.CharString("RuntimePatcher.Main, RuntimePatcher")

			Expect(platform.GoString(p)).To(Equal("RuntimePatcher.Main, RuntimePatcher"))
		})

		It("reads nil as empty", func() {
			Expect(platform.GoString(nil)).To(BeEmpty())
		})
	})
})
