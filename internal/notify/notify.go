package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

// InsertChannel is the Postgres notification channel fired by the
// images_notify_insert trigger; the payload is the inserted row's id.
const InsertChannel = "images_inserted"

// InsertHandler is invoked for every insert notification with the new record's id.
type InsertHandler func(id string)

// Listener is the change-notification feed for image inserts. Subscribers are
// invoked for inserts performed by any writer, including other processes.
type Listener interface {
	// Subscribe registers fn and returns a cancel function that removes the
	// registration. Cancel is safe to call more than once.
	Subscribe(fn InsertHandler) (cancel func())
	// Run blocks, dispatching notifications to subscribers until ctx is done.
	Run(ctx context.Context) error
}

// hub fans a notification out to the currently registered subscribers.
type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]InsertHandler
}

func newHub() *hub {
	return &hub{subs: make(map[int]InsertHandler)}
}

func (h *hub) Subscribe(fn InsertHandler) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *hub) publish(payload string) {
	h.mu.Lock()
	fns := make([]InsertHandler, 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(payload)
	}
}

// PGListener listens on a dedicated Postgres connection and republishes insert
// notifications to subscribers. A broken connection is retried with backoff.
type PGListener struct {
	*hub
	dsn     string
	backoff time.Duration
}

// NewPGListener creates a listener for the given Postgres DSN.
func NewPGListener(dsn string) *PGListener {
	return &PGListener{
		hub:     newHub(),
		dsn:     dsn,
		backoff: 3 * time.Second,
	}
}

var _ Listener = (*PGListener)(nil)

// Run connects, issues LISTEN and dispatches notifications until ctx is done.
// It returns nil on context cancellation; connection errors are logged and the
// connection re-established after a short pause.
func (l *PGListener) Run(ctx context.Context) error {
	for {
		if err := l.listenOnce(ctx); err != nil {
			notifyLog(map[string]any{
				"level":         "error",
				"event":         "notify_listener_error",
				"error_message": err.Error(),
			})
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.backoff):
		}
	}
}

func (l *PGListener) listenOnce(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+InsertChannel); err != nil {
		return err
	}

	notifyLog(map[string]any{
		"level":   "info",
		"event":   "notify_listener_connected",
		"channel": InsertChannel,
	})

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		l.publish(n.Payload)
	}
}

func notifyLog(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	data["component"] = "notify"
	if b, err := json.Marshal(data); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
