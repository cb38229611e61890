package logging

import (
	"log/slog"
	"strings"

	"golang.org/x/sys/windows"
)

// debuggerWriter forwards each record to OutputDebugStringW.
type debuggerWriter struct{}

func (debuggerWriter) Write(p []byte) (int, error) {
	message, err := windows.UTF16PtrFromString(strings.ReplaceAll(string(p), "\x00", ""))
	if err != nil {
		return 0, err
	}
	windows.OutputDebugString(message)
	return len(p), nil
}

func extraHandlers(options *slog.HandlerOptions) []slog.Handler {
	return []slog.Handler{slog.NewTextHandler(debuggerWriter{}, options)}
}
