package bootstrap_test

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/k2io/bootstrapper/bootstrap"
	"github.com/k2io/bootstrapper/hostfxr"
	"github.com/stretchr/testify/mock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Orchestrator", func() {
	var (
		settings *bootstrap.Settings
		loader   *loaderMock
		logs     *bytes.Buffer
		dir      string
	)

	fullEnvironment := map[string]string{
		bootstrap.EnvRuntimeConfigPath: "/srv/env/app.runtimeconfig.json",
		bootstrap.EnvAssemblyPath:      "/srv/env/Patch.dll",
		bootstrap.EnvTypeName:          "Patch.Entry, Patch",
		bootstrap.EnvMethodName:        "Run",
	}

	BeforeEach(func() {
		settings = &bootstrap.Settings{
			Timeout:           30 * time.Second,
			Interval:          20 * time.Millisecond,
			RuntimeConfigFile: "RuntimePatcher.runtimeconfig.json",
			AssemblyFile:      "RuntimePatcher.dll",
			TypeName:          "RuntimePatcher.Main, RuntimePatcher",
			MethodName:        "InitializePatchesUnmanaged",
		}
		loader = &loaderMock{}
		dir = filepath.Join(GinkgoT().TempDir(), "bin")

		logs = &bytes.Buffer{}
		previous := slog.Default()
		slog.SetDefault(slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
		DeferCleanup(slog.SetDefault, previous)
	})

	Describe("RunFromEnvironment", func() {
		When("no variable is set", func() {
			It("does not poll, load or log an outcome", func() {
				p := &libraryStub{}
				o := bootstrap.NewOrchestrator(settings, p, loader, dir, bootstrap.WithLookupEnv(environment(nil)))

				outcome := o.RunFromEnvironment(context.Background())

				Expect(outcome.Source).To(Equal(bootstrap.SourceNone))
				Expect(outcome.Attempted).To(BeFalse())
				Expect(p.calls.Load()).To(BeZero())
				loader.AssertNotCalled(GinkgoT(), "Load", mock.Anything)
				Expect(logs.String()).To(BeEmpty())
			})
		})

		When("only some variables are set", func() {
			It("does nothing", func() {
				partial := map[string]string{
					bootstrap.EnvRuntimeConfigPath: "/srv/env/app.runtimeconfig.json",
					bootstrap.EnvAssemblyPath:      "/srv/env/Patch.dll",
					bootstrap.EnvTypeName:          "Patch.Entry, Patch",
					bootstrap.EnvMethodName:        "",
				}
				o := bootstrap.NewOrchestrator(settings, &libraryStub{}, loader, dir, bootstrap.WithLookupEnv(environment(partial)))

				outcome := o.RunFromEnvironment(context.Background())

				Expect(outcome.Source).To(Equal(bootstrap.SourceNone))
				loader.AssertNotCalled(GinkgoT(), "Load", mock.Anything)
			})
		})

		When("all variables are set", func() {
			It("loads once with the environment parameters", func() {
				expected := hostfxr.Parameters{
					RuntimeConfigPath: "/srv/env/app.runtimeconfig.json",
					AssemblyPath:      "/srv/env/Patch.dll",
					TypeName:          "Patch.Entry, Patch",
					MethodName:        "Run",
				}
				loader.On("Load", expected).Return(hostfxr.Success).Once()
				o := bootstrap.NewOrchestrator(settings, &libraryStub{misses: 1}, loader, dir, bootstrap.WithLookupEnv(environment(fullEnvironment)))

				outcome := o.RunFromEnvironment(context.Background())

				Expect(outcome.Source).To(Equal(bootstrap.SourceEnvironment))
				Expect(outcome.Attempted).To(BeTrue())
				Expect(outcome.Result).To(Equal(hostfxr.Success))
				Expect(outcome.Poll.Attempts).To(Equal(2))
				loader.AssertExpectations(GinkgoT())
				Expect(logs.String()).To(ContainSubstring("bootstrapper_load_assembly finished"))
			})
		})

		When("the hosting library never loads", func() {
			It("does not attempt a load", func() {
				settings.Timeout = 100 * time.Millisecond
				o := bootstrap.NewOrchestrator(settings, &libraryStub{misses: never}, loader, dir, bootstrap.WithLookupEnv(environment(fullEnvironment)))

				outcome := o.RunFromEnvironment(context.Background())

				Expect(outcome.Source).To(Equal(bootstrap.SourceEnvironment))
				Expect(outcome.Poll.Found).To(BeFalse())
				Expect(outcome.Attempted).To(BeFalse())
				loader.AssertNotCalled(GinkgoT(), "Load", mock.Anything)
				Expect(logs.String()).ToNot(ContainSubstring("bootstrapper_load_assembly finished"))
			})
		})
	})

	Describe("RunFromConstants", func() {
		It("joins the build-time file names with the module directory", func() {
			expected := hostfxr.Parameters{
				RuntimeConfigPath: filepath.Join(dir, "RuntimePatcher.runtimeconfig.json"),
				AssemblyPath:      filepath.Join(dir, "RuntimePatcher.dll"),
				TypeName:          "RuntimePatcher.Main, RuntimePatcher",
				MethodName:        "InitializePatchesUnmanaged",
			}
			loader.On("Load", expected).Return(hostfxr.EntryPointError).Once()
			o := bootstrap.NewOrchestrator(settings, &libraryStub{}, loader, dir, bootstrap.WithLookupEnv(environment(nil)))

			outcome := o.RunFromConstants(context.Background())

			Expect(outcome.Source).To(Equal(bootstrap.SourceConstants))
			Expect(outcome.Attempted).To(BeTrue())
			Expect(outcome.Result).To(Equal(hostfxr.EntryPointError))
			loader.AssertExpectations(GinkgoT())
		})
	})

	Describe("Start", func() {
		It("returns before the hosting library shows up", func() {
			loader.On("Load", mock.Anything).Return(hostfxr.Success).Once()
			o := bootstrap.NewOrchestrator(settings, &libraryStub{misses: 5}, loader, dir, bootstrap.WithLookupEnv(environment(nil)))

			done := o.Start(context.Background())

			Consistently(done, 50*time.Millisecond).ShouldNot(Receive())
			var outcome bootstrap.Outcome
			Eventually(done, time.Second).Should(Receive(&outcome))
			Expect(outcome.Source).To(Equal(bootstrap.SourceConstants))
			Expect(outcome.Result).To(Equal(hostfxr.Success))
		})

		It("prefers the environment over the build-time constants", func() {
			loader.On("Load", mock.MatchedBy(func(p hostfxr.Parameters) bool {
				return p.AssemblyPath == "/srv/env/Patch.dll"
			})).Return(hostfxr.Success).Once()
			o := bootstrap.NewOrchestrator(settings, &libraryStub{}, loader, dir, bootstrap.WithLookupEnv(environment(fullEnvironment)))

			var outcome bootstrap.Outcome
			Eventually(o.Start(context.Background()), time.Second).Should(Receive(&outcome))

			Expect(outcome.Source).To(Equal(bootstrap.SourceEnvironment))
			loader.AssertExpectations(GinkgoT())
		})
	})
})
