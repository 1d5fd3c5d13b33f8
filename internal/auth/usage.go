package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/linkforge/linkforge/agent-gateway/internal/store"
	"github.com/linkforge/linkforge/agent-gateway/pkg/models"
	"github.com/rs/zerolog/log"
)

// UsageRecorder writes usage records and last-used timestamps on a
// background goroutine. Recording is best-effort: the queue is bounded,
// a full queue drops the event with a warning, and write failures are
// logged and swallowed. The admit/deny decision never waits on it.
type UsageRecorder struct {
	store store.Store
	ch    chan usageEvent

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

type usageEvent struct {
	keyID string
	at    time.Time
}

// NewUsageRecorder creates a recorder with the given queue capacity.
func NewUsageRecorder(s store.Store, queueSize int) *UsageRecorder {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &UsageRecorder{
		store: s,
		ch:    make(chan usageEvent, queueSize),
		done:  make(chan struct{}),
	}
}

// Start launches the background writer. Safe to call once.
func (r *UsageRecorder) Start() {
	r.startOnce.Do(func() {
		go r.loop()
	})
}

// Record enqueues one accepted call for a key. Never blocks; drops the
// event if the queue is full.
func (r *UsageRecorder) Record(keyID string, at time.Time) {
	select {
	case r.ch <- usageEvent{keyID: keyID, at: at}:
	default:
		log.Warn().Str("key_id", keyID).Msg("usage queue full, dropping usage record")
	}
}

// Stop drains the queue and waits for the writer to finish, or gives up
// when ctx expires.
func (r *UsageRecorder) Stop(ctx context.Context) {
	r.stopOnce.Do(func() { close(r.ch) })

	select {
	case <-r.done:
	case <-ctx.Done():
		log.Warn().Msg("usage recorder stopped before draining")
	}
}

func (r *UsageRecorder) loop() {
	defer close(r.done)

	for ev := range r.ch {
		// Fresh context per write: the originating request is long gone.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		record := &models.UsageRecord{
			ID:        uuid.NewString(),
			KeyID:     ev.keyID,
			CreatedAt: ev.at,
		}
		if err := r.store.CreateUsageRecord(ctx, record); err != nil {
			log.Warn().Err(err).Str("key_id", ev.keyID).Msg("failed to write usage record")
		}
		if err := r.store.TouchAPIKey(ctx, ev.keyID, ev.at); err != nil {
			log.Warn().Err(err).Str("key_id", ev.keyID).Msg("failed to update key last_used_at")
		}

		cancel()
	}
}
