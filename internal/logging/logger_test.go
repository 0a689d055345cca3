package logging

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/events"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		verbose, debug bool
		want           zerolog.Level
	}{
		{false, false, zerolog.InfoLevel},
		{true, false, zerolog.DebugLevel},
		{false, true, zerolog.TraceLevel},
		{true, true, zerolog.TraceLevel},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.verbose, tt.debug); got != tt.want {
			t.Errorf("LevelFor(%v, %v) = %v, want %v", tt.verbose, tt.debug, got, tt.want)
		}
	}
}

func TestComponentTagsLines(t *testing.T) {
	var buf lockedBuffer
	NewLogger(&buf).Component("editor").Info().Msg("saved")

	out := buf.String()
	if !strings.Contains(out, "saved") || !strings.Contains(out, "editor") {
		t.Errorf("unexpected log line %q", out)
	}
}

func TestNopDiscards(t *testing.T) {
	// Must not panic
	Nop().Component("x").Error().Msg("dropped")
}

func TestWatchEventsLogsUntilCancelled(t *testing.T) {
	SetGlobalLevel(zerolog.DebugLevel)
	defer SetGlobalLevel(zerolog.InfoLevel)

	var buf lockedBuffer
	logger := NewLogger(&buf)
	bus := events.NewEventBus(8)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		logger.WatchEvents(ctx, bus)
		close(done)
	}()

	// The watcher subscribes asynchronously; publish until it shows up.
	deadline := time.Now().Add(time.Second)
	for !strings.Contains(buf.String(), "entity_saved") {
		if time.Now().After(deadline) {
			t.Fatal("event was not logged")
		}
		bus.PublishEntitySaved(models.KindSolver, 3, true)
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WatchEvents did not return after cancel")
	}
}

func TestWatchEventsNilBus(t *testing.T) {
	// Returns immediately
	NewLogger(&lockedBuffer{}).WatchEvents(context.Background(), nil)
}
