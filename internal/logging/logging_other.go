//go:build !windows

package logging

import "log/slog"

func extraHandlers(*slog.HandlerOptions) []slog.Handler {
	return nil
}
