package bootstrap

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/k2io/bootstrapper/internal/platform"
	"github.com/k2io/bootstrapper/internal/procargs"
)

// Build-time defaults, overridable with
// -ldflags "-X github.com/k2io/bootstrapper/bootstrap.<name>=<value>".
var (
	runtimeConfigFile = "RuntimePatcher.runtimeconfig.json"
	assemblyFile      = "RuntimePatcher.dll"
	typeName          = "RuntimePatcher.Main, RuntimePatcher"
	methodName        = "InitializePatchesUnmanaged"
	timeout           = "30s"
	pollInterval      = "100ms"
	loggingEnabled    = "true"
	exitHooksEnabled  = "true"
	logFileName       = "bootstrapper.log"
	logLevel          = "debug"
)

// Process flags forcing features on regardless of the build-time defaults.
const (
	FlagLogBootstrapper = "-LogBootstrapper"
	FlagHookExitProcess = "-HookExitProcess"
)

// Settings is built once at attach time, before the worker thread starts,
// and only read afterwards.
type Settings struct {
	LoggingEnabled    bool
	ExitHooksEnabled  bool
	Timeout           time.Duration `validate:"gt=0"`
	Interval          time.Duration `validate:"gt=0,ltefield=Timeout"`
	RuntimeConfigFile string        `validate:"required"`
	AssemblyFile      string        `validate:"required"`
	TypeName          string        `validate:"required"`
	MethodName        string        `validate:"required"`
	LogFileName       string        `validate:"required"`
	LogLevel          string
	HostingLibrary    string `validate:"required"`
}

var validate = validator.New()

// DefaultSettings parses the build-time defaults.
func DefaultSettings() (*Settings, error) {
	s := &Settings{
		RuntimeConfigFile: runtimeConfigFile,
		AssemblyFile:      assemblyFile,
		TypeName:          typeName,
		MethodName:        methodName,
		LogFileName:       logFileName,
		LogLevel:          logLevel,
		HostingLibrary:    platform.HostingLibraryName,
	}
	var err error
	if s.LoggingEnabled, err = strconv.ParseBool(loggingEnabled); err != nil {
		return nil, fmt.Errorf("invalid logging default '%s': %w", loggingEnabled, err)
	}
	if s.ExitHooksEnabled, err = strconv.ParseBool(exitHooksEnabled); err != nil {
		return nil, fmt.Errorf("invalid exit hooks default '%s': %w", exitHooksEnabled, err)
	}
	if s.Timeout, err = time.ParseDuration(timeout); err != nil {
		return nil, fmt.Errorf("invalid timeout default '%s': %w", timeout, err)
	}
	if s.Interval, err = time.ParseDuration(pollInterval); err != nil {
		return nil, fmt.Errorf("invalid poll interval default '%s': %w", pollInterval, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// ApplyProcessFlags enables logging and the exit guard when the process was
// started with the matching flags. Flags only ever enable.
func (s *Settings) ApplyProcessFlags(args []string) {
	if procargs.Has(args, FlagLogBootstrapper) {
		s.LoggingEnabled = true
	}
	if procargs.Has(args, FlagHookExitProcess) {
		s.ExitHooksEnabled = true
	}
}
