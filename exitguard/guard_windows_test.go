//go:build amd64

package exitguard

import (
	"os/exec"

	"github.com/k2io/bootstrapper/hook"
	"github.com/k2io/bootstrapper/internal/platform"
	"golang.org/x/sys/windows"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func startChild() (*exec.Cmd, windows.Handle) {
	child := exec.Command("ping", "-n", "30", "127.0.0.1")
	Expect(child.Start()).To(Succeed())
	DeferCleanup(func() {
		_ = child.Process.Kill()
		_ = child.Wait()
	})

	h, err := windows.OpenProcess(windows.PROCESS_TERMINATE|windows.PROCESS_QUERY_LIMITED_INFORMATION|windows.SYNCHRONIZE, false, uint32(child.Process.Pid))
	Expect(err).ToNot(HaveOccurred())
	DeferCleanup(windows.CloseHandle, h)
	return child, h
}

var _ = Describe("Guard on Windows", Label("integration"), func() {
	Describe("isCurrentProcess", func() {
		It("recognizes the pseudo handle", func() {
			Expect(isCurrentProcess(windows.CurrentProcess())).To(BeTrue())
		})

		It("recognizes a real handle of the own process", func() {
			var h windows.Handle
			self := windows.CurrentProcess()
			Expect(windows.DuplicateHandle(self, self, self, &h, 0, false, windows.DUPLICATE_SAME_ACCESS)).To(Succeed())
			DeferCleanup(windows.CloseHandle, h)

			Expect(h).ToNot(Equal(self))
			Expect(isCurrentProcess(h)).To(BeTrue())
		})

		It("does not take another process for its own", func() {
			_, h := startChild()

			Expect(isCurrentProcess(h)).To(BeFalse())
		})
	})

	Describe("terminateProcess", func() {
		It("forwards a foreign process to the real primitive and rehooks", func() {
			child, h := startChild()

			g := newGuard(platform.Native(), true, nil)
			g.primitives = []primitive{
				{image: "kernel32.dll", name: terminateProcess, detour: func() uintptr {
					return platform.NewCallback(g.terminateProcess)
				}},
			}
			g.Install()
			DeferCleanup(g.Uninstall)

			record := g.records[terminateProcess]
			Expect(record).ToNot(BeNil())
			Expect(record.Installed).To(BeTrue())

			result := g.terminateProcess(uintptr(h), 7)

			Expect(result).To(Equal(uintptr(1)))
			Expect(record.Installed).To(BeTrue())
			Expect(isTrampolineAt(record.Target)).To(BeTrue())

			err := child.Wait()
			var exitErr *exec.ExitError
			Expect(err).To(BeAssignableToTypeOf(exitErr))
			Expect(child.ProcessState.ExitCode()).To(Equal(7))
		})
	})
})

func isTrampolineAt(addr uintptr) bool {
	b := platform.Bytes(addr, hook.Size)
	return b[0] == 0x48 && b[1] == 0xb8 && b[10] == 0xff && b[11] == 0xe0
}
