package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/k2io/bootstrapper/internal/platform"
)

// Prober reports whether a module is loaded in the process.
type Prober interface {
	ResolveLibrary(name string) (platform.Library, error)
}

type PollResult struct {
	Found    bool
	Elapsed  time.Duration
	Attempts int
}

// PollForHostingLibrary checks for library every interval until it is loaded
// or timeout elapsed. The calling thread sleeps in between.
func PollForHostingLibrary(ctx context.Context, prober Prober, library string, timeout, interval time.Duration) PollResult {
	var result PollResult

	policy := retrypolicy.Builder[bool]().
		HandleResult(false).
		WithDelay(interval).
		WithMaxRetries(-1).
		WithMaxDuration(timeout).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[bool]) {
			slog.Debug("Hosting library not loaded yet", "library", library, "retries", e.Retries(), "elapsed", e.ElapsedTime())
		}).
		Build()

	start := time.Now()
	found, _ := failsafe.NewExecutor[bool](policy).WithContext(ctx).Get(func() (bool, error) {
		result.Attempts++
		_, err := prober.ResolveLibrary(library)
		return err == nil, nil
	})
	result.Found = found
	result.Elapsed = time.Since(start)

	if !found {
		slog.Error("Hosting library not loaded, aborting", "library", library, "timeout", timeout, "attempts", result.Attempts)
		return result
	}
	slog.Info("Hosting library found", "library", library, "elapsedMs", result.Elapsed.Milliseconds())
	return result
}
