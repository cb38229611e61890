// Package logging sets up the process-wide slog logger of the bootstrapper.
package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	slogmulti "github.com/samber/slog-multi"
)

type Config struct {
	Enabled bool
	// Dir receives the log file; no file is written when empty
	Dir      string
	FileName string
	// Level accepts slog level names or numeric levels
	Level string
}

var logFile *os.File

// Initialize installs the default logger: a console text handler and a JSON
// file handler fanned out, plus the platform debugger sink where there is one.
// The log file is truncated. When logging is disabled every record is
// discarded.
func Initialize(config Config) (*slog.LevelVar, error) {
	if logFile != nil {
		return nil, errors.New("logging already initialized")
	}

	levelVar := new(slog.LevelVar)
	if !config.Enabled {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return levelVar, nil
	}

	if config.Level != "" {
		level, err := parseLevel(config.Level)
		if err != nil {
			return nil, err
		}
		levelVar.Set(level)
	}

	options := createDefaultOptions(levelVar)
	handlers := []slog.Handler{createConsoleLogger(options)}

	var fileErr error
	if config.Dir != "" && config.FileName != "" {
		logFile, fileErr = openLogFile(filepath.Join(config.Dir, config.FileName))
		if fileErr == nil {
			handlers = append(handlers, createFileLogger(logFile, options))
		}
	}
	handlers = append(handlers, extraHandlers(options)...)

	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)))

	if fileErr != nil {
		slog.Warn("Log file not available, logging to console only", "error", fileErr)
	}
	return levelVar, nil
}

// Finalize flushes and closes the log file.
func Finalize() error {
	if logFile == nil {
		return nil
	}
	defer func() { logFile = nil }()

	if err := logFile.Sync(); err != nil {
		return errors.Join(err, logFile.Close())
	}
	return logFile.Close()
}

func ReplaceSourceFilePath(_ []string, attribute slog.Attr) slog.Attr {
	if attribute.Key == slog.SourceKey {
		source, ok := attribute.Value.Any().(*slog.Source)
		if ok && source != nil {
			source.File = filepath.Base(source.File)
		}
	}
	return attribute
}

func parseLevel(input string) (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(input)); err != nil {
		parsedLevel, intErr := strconv.Atoi(input)
		if intErr != nil {
			return level, fmt.Errorf("cannot convert '%s' to log level: %w", input, errors.Join(err, intErr))
		}
		level = slog.Level(parsedLevel)
	}

	return level, nil
}

func openLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
}

func createDefaultOptions(levelVar *slog.LevelVar) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:       levelVar,
		AddSource:   true,
		ReplaceAttr: ReplaceSourceFilePath}
}

func createConsoleLogger(options *slog.HandlerOptions) slog.Handler {
	return slog.NewTextHandler(os.Stdout, options)
}

func createFileLogger(file *os.File, options *slog.HandlerOptions) slog.Handler {
	return slog.NewJSONHandler(file, options)
}
