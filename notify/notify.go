// Package notify holds the transient messages shown to the user: at most one
// error and one info notification at a time, each dismissed automatically.
package notify

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Severity classifies a notification. One notification per severity can be
// active at a time.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityInfo  Severity = "info"
)

// DefaultAutoDismiss is how long a notification stays up unless configured.
const DefaultAutoDismiss = 6000 * time.Millisecond

// ID identifies one shown notification.
type ID string

// Notification is a single user-facing message.
type Notification struct {
	ID          ID
	Message     string
	Severity    Severity
	AutoDismiss time.Duration
	CreatedAt   time.Time
}

// Sink is the part of the controller other controllers report through.
type Sink interface {
	Error(message string) ID
	Info(message string) ID
	Retract(id ID) bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithAutoDismiss sets the auto-dismiss delay. Zero or negative keeps
// notifications until they are replaced, retracted or dismissed.
func WithAutoDismiss(d time.Duration) Option {
	return func(c *Controller) { c.autoDismiss = d }
}

type entry struct {
	n     Notification
	seq   uint64
	timer *time.Timer
}

// Controller is safe for concurrent use. Listeners run outside the lock.
type Controller struct {
	mu          sync.Mutex
	autoDismiss time.Duration
	seq         uint64
	active      map[Severity]*entry
	listeners   map[int]func([]Notification)
	nextLn      int
}

var _ Sink = (*Controller)(nil)

// New returns a Controller with the default auto-dismiss delay.
func New(opts ...Option) *Controller {
	c := &Controller{
		autoDismiss: DefaultAutoDismiss,
		active:      map[Severity]*entry{},
		listeners:   map[int]func([]Notification){},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Show displays message, replacing any active notification of the same
// severity, and returns its ID.
func (c *Controller) Show(message string, sev Severity) ID {
	n := Notification{
		ID:          ID(uuid.NewString()),
		Message:     message,
		Severity:    sev,
		AutoDismiss: c.autoDismiss,
		CreatedAt:   time.Now(),
	}

	c.mu.Lock()
	if old, ok := c.active[sev]; ok {
		stopTimer(old)
		log.Debug().Str("severity", string(sev)).Str("replaced", old.n.Message).Msg("notification replaced")
	}
	c.seq++
	e := &entry{n: n, seq: c.seq}
	if c.autoDismiss > 0 {
		e.timer = time.AfterFunc(c.autoDismiss, func() { c.Retract(n.ID) })
	}
	c.active[sev] = e
	snap, fns := c.snapshotLocked()
	c.mu.Unlock()

	publish(fns, snap)
	return n.ID
}

// Error shows an error notification.
func (c *Controller) Error(message string) ID { return c.Show(message, SeverityError) }

// Info shows an informational notification.
func (c *Controller) Info(message string) ID { return c.Show(message, SeverityInfo) }

// Retract removes the notification with id if it is still active. It
// returns false when id was already replaced, retracted or expired.
func (c *Controller) Retract(id ID) bool {
	c.mu.Lock()
	for sev, e := range c.active {
		if e.n.ID != id {
			continue
		}
		stopTimer(e)
		delete(c.active, sev)
		snap, fns := c.snapshotLocked()
		c.mu.Unlock()
		publish(fns, snap)
		return true
	}
	c.mu.Unlock()
	return false
}

// Dismiss removes the active notification of severity sev, if any.
func (c *Controller) Dismiss(sev Severity) {
	c.mu.Lock()
	e, ok := c.active[sev]
	if !ok {
		c.mu.Unlock()
		return
	}
	stopTimer(e)
	delete(c.active, sev)
	snap, fns := c.snapshotLocked()
	c.mu.Unlock()
	publish(fns, snap)
}

// Active returns the visible notifications in creation order.
func (c *Controller) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, _ := c.snapshotLocked()
	return snap
}

// OnChange registers fn to receive the visible set after every change. The
// returned func unregisters it.
func (c *Controller) OnChange(fn func([]Notification)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextLn
	c.nextLn++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Close stops every pending auto-dismiss timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.active {
		stopTimer(e)
	}
}

func (c *Controller) snapshotLocked() ([]Notification, []func([]Notification)) {
	entries := make([]*entry, 0, len(c.active))
	for _, e := range c.active {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *entry) int { return cmp.Compare(a.seq, b.seq) })
	out := make([]Notification, len(entries))
	for i, e := range entries {
		out[i] = e.n
	}
	fns := make([]func([]Notification), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	return out, fns
}

func publish(fns []func([]Notification), snap []Notification) {
	for _, fn := range fns {
		fn(slices.Clone(snap))
	}
}

func stopTimer(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
	}
}
