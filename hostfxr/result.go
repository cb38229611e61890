package hostfxr

import "fmt"

// Result is the outcome of one Load. The numeric values are part of the
// exported C ABI.
type Result uint32

const (
	Success Result = iota
	HostFxrLoadError
	HostFxrFptrLoadError
	InitializeRuntimeConfigError
	GetRuntimeDelegateError
	EntryPointError
)

var resultNames = [...]string{
	Success:                      "Success",
	HostFxrLoadError:             "HostFxrLoadError",
	HostFxrFptrLoadError:         "HostFxrFptrLoadError",
	InitializeRuntimeConfigError: "InitializeRuntimeConfigError",
	GetRuntimeDelegateError:      "GetRuntimeDelegateError",
	EntryPointError:              "EntryPointError",
}

func (r Result) String() string {
	if int(r) < len(resultNames) {
		return resultNames[r]
	}
	return fmt.Sprintf("Result(%d)", uint32(r))
}
