// Package audit records who changed what. Writes are queued and persisted by
// a background worker, so a failing or slow store never blocks or fails the
// request that triggered the entry.
package audit

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/metrics"
	"github.com/uclergnlts/tav-egitim/internal/models"
)

// Meta is request metadata captured at call time.
type Meta struct {
	IP        string
	UserAgent string
}

// MetaFromRequest reads the client IP and user agent.
func MetaFromRequest(r *http.Request) Meta {
	return Meta{IP: httpx.ClientIP(r), UserAgent: r.UserAgent()}
}

// Entry is one change to record. OldValue and NewValue may be any JSON
// serialisable value.
type Entry struct {
	UserID     uint
	UserRole   string
	Action     models.AuditAction
	EntityType models.AuditEntity
	EntityID   *uint
	OldValue   any
	NewValue   any
	Meta       Meta
}

// Store persists audit rows.
type Store interface {
	Save(ctx context.Context, row *models.AuditLog) error
}

// Recorder is what handlers and services depend on.
type Recorder interface {
	Log(ctx context.Context, e Entry)
}

// DefaultBufferSize is used when NewLogger gets a non-positive size.
const DefaultBufferSize = 256

const writeTimeout = 5 * time.Second

// Logger is the asynchronous Recorder.
type Logger struct {
	store  Store
	queue  chan *models.AuditLog
	stop   chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool
	once   sync.Once
}

// NewLogger starts the writer goroutine. Call Close on shutdown.
func NewLogger(store Store, bufferSize int) *Logger {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	l := &Logger{
		store: store,
		queue: make(chan *models.AuditLog, bufferSize),
		stop:  make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

// Log enqueues an entry. It never blocks: a full queue drops the entry.
func (l *Logger) Log(_ context.Context, e Entry) {
	if l.closed.Load() {
		metrics.AuditDropped.Inc()
		return
	}
	row := toRow(e)
	select {
	case l.queue <- row:
	default:
		metrics.AuditDropped.Inc()
		log.Warn().Str("action", string(row.Action)).Str("entity", string(row.EntityType)).Msg("audit queue full, dropping entry")
	}
}

// Close stops accepting entries and waits until the queue is drained.
func (l *Logger) Close() error {
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.stop)
	})
	l.wg.Wait()
	return nil
}

func (l *Logger) run() {
	defer l.wg.Done()
	for {
		select {
		case row := <-l.queue:
			l.write(row)
		case <-l.stop:
			for {
				select {
				case row := <-l.queue:
					l.write(row)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) write(row *models.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			metrics.AuditWriteFailures.Inc()
			log.Error().Interface("panic", rec).Msg("audit store panicked")
		}
	}()
	if err := l.store.Save(ctx, row); err != nil {
		metrics.AuditWriteFailures.Inc()
		log.Error().Err(err).
			Uint("user_id", row.UserID).
			Str("action", string(row.Action)).
			Str("entity", string(row.EntityType)).
			Msg("failed to save audit entry")
	}
}

func toRow(e Entry) *models.AuditLog {
	return &models.AuditLog{
		CreatedAt:  time.Now(),
		UserID:     e.UserID,
		UserRole:   e.UserRole,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		OldValue:   marshalValue(e.OldValue),
		NewValue:   marshalValue(e.NewValue),
		IP:         e.Meta.IP,
		UserAgent:  e.Meta.UserAgent,
	}
}

func marshalValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Msg("audit value is not JSON serialisable")
		return ""
	}
	return string(b)
}

// Discard drops every entry.
type Discard struct{}

func (Discard) Log(context.Context, Entry) {}

// ID returns a pointer to id for Entry.EntityID.
func ID(id uint) *uint { return &id }
