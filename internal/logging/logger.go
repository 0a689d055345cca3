// Package logging provides structured logging for the console.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/events"
)

// Logger wraps zerolog with the console's output conventions.
type Logger struct {
	zlog zerolog.Logger
}

// NewLogger creates a logger writing human-readable lines to out.
// stdout is kept for command output, so callers normally pass os.Stderr.
func NewLogger(out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		zlog: zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
		}).With().Timestamp().Logger(),
	}
}

// NewDefaultCLILogger creates a default CLI logger on stderr.
func NewDefaultCLILogger() *Logger {
	return NewLogger(os.Stderr)
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", name).Logger()}
}

// WatchEvents logs every bus event at debug level until ctx is done or the
// bus is closed. It blocks; run it in a goroutine.
func (l *Logger) WatchEvents(ctx context.Context, bus *events.EventBus) {
	if bus == nil {
		return
	}
	ch := bus.SubscribeAll()
	defer bus.UnsubscribeAll(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			l.logEvent(ev)
		}
	}
}

func (l *Logger) logEvent(ev events.Event) {
	e := l.zlog.Debug().Str("event", string(ev.Type()))
	switch t := ev.(type) {
	case *events.ToastEvent:
		e = e.Str("level", string(t.Level)).Str("message", t.Message)
	case *events.SessionChangedEvent:
		e = e.Str("kind", t.Kind.String()).Bool("open", t.Open).Int64("item_id", t.ItemID)
	case *events.EntitySavedEvent:
		e = e.Str("kind", t.Kind.String()).Int64("id", t.ID).Bool("created", t.Created)
	case *events.EntityDeletedEvent:
		e = e.Str("kind", t.Kind.String()).Int64("id", t.ID).Str("name", t.Name)
	case *events.StoreRefreshedEvent:
		e = e.Str("kind", t.Kind.String()).Int("count", t.Count).AnErr("refresh_error", t.Error)
	}
	e.Msg("event")
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// LevelFor maps the --verbose and --debug flags to a log level.
func LevelFor(verbose, debug bool) zerolog.Level {
	switch {
	case debug:
		return zerolog.TraceLevel
	case verbose:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

func init() {
	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Configure global logger
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}
