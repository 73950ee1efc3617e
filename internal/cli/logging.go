package cli

import (
	"io"
	"log/slog"

	"github.com/fatih/color"
)

// newLogger creates the CLI logger: text on w, Debug with --verbose and
// Info otherwise.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: colorLevel,
	}))
}

// colorLevel colors the level attribute. fatih/color disables itself when
// the output is not a terminal.
func colorLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) != 0 {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}

	var text string
	switch level {
	case slog.LevelDebug:
		text = "DEBUG"
	case slog.LevelInfo:
		text = color.GreenString("INFO")
	case slog.LevelWarn:
		text = color.YellowString("WARN")
	case slog.LevelError:
		text = color.RedString("ERROR")
	default:
		text = level.String()
	}
	a.Value = slog.StringValue(text)
	return a
}
