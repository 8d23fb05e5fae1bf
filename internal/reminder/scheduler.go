// Package reminder schedules medicine reminders at a wall-clock time of day.
// Each reminder owns one timer; firing fans out to every registered Notifier.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/themobileprof/medibot-be/internal/db"
	"github.com/themobileprof/medibot-be/internal/privacy"
)

const (
	DefaultMessage = "Time to take your medicine!"
	Title          = "💊 Medicine Reminder"

	notifyTimeout = 10 * time.Second
)

var (
	ErrInvalidTimeFormat = errors.New("reminder time must be HH:MM (24-hour)")
	ErrNotFound          = errors.New("reminder not found")
	ErrStopped           = errors.New("reminder scheduler stopped")
)

var timeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// Request asks for a reminder at Time ("HH:MM")
type Request struct {
	Time      string `json:"time"`
	Message   string `json:"message,omitempty"`
	SoundRef  string `json:"sound,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Reminder is a scheduled reminder
type Reminder struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Message   string    `json:"message"`
	SoundRef  string    `json:"sound,omitempty"`
	TimeOfDay string    `json:"time"`
	DueAt     time.Time `json:"due_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier is told when a reminder fires
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, r Reminder) error

func (f NotifierFunc) Notify(ctx context.Context, r Reminder) error { return f(ctx, r) }

// LogNotifier writes fired reminders to the log
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, r Reminder) error {
	if n.Logger != nil {
		n.Logger.Info("reminder triggered",
			zap.String("id", r.ID),
			zap.String("time", r.TimeOfDay),
			zap.String("message", privacy.SanitizeForLogging(r.Message)),
			zap.String("sound", r.SoundRef))
	}
	return nil
}

// Store persists reminders. *db.DB implements it.
type Store interface {
	SaveReminder(ctx context.Context, r *db.Reminder) error
	ListPendingReminders(ctx context.Context) ([]db.Reminder, error)
	MarkReminderFired(ctx context.Context, id string) error
	DeleteReminder(ctx context.Context, id string) error
}

type stopper interface {
	Stop() bool
}

type entry struct {
	reminder Reminder
	timer    stopper
}

// Scheduler arms one timer per pending reminder
type Scheduler struct {
	notifiers    []Notifier
	store        Store
	defaultSound string
	logger       *zap.Logger

	now       func() time.Time
	afterFunc func(d time.Duration, f func()) stopper

	mu      sync.Mutex
	pending map[string]*entry
	stopped bool
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithStore persists reminders so they survive a restart
func WithStore(store Store) Option {
	return func(s *Scheduler) { s.store = store }
}

// WithDefaultSound sets the sound used when a request names none
func WithDefaultSound(ref string) Option {
	return func(s *Scheduler) { s.defaultSound = ref }
}

// WithNotifiers registers notifiers called on every fire
func WithNotifiers(notifiers ...Notifier) Option {
	return func(s *Scheduler) { s.notifiers = append(s.notifiers, notifiers...) }
}

// NewScheduler creates a scheduler. It notifies nobody until AddNotifier or
// WithNotifiers registers someone.
func NewScheduler(logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		logger:  logger,
		now:     time.Now,
		pending: make(map[string]*entry),
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddNotifier registers n for reminders fired from now on
func (s *Scheduler) AddNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifiers = append(s.notifiers, n)
}

// ParseTimeOfDay validates "HH:MM" and returns its hour and minute
func ParseTimeOfDay(value string) (hour, minute int, err error) {
	m := timeOfDay.FindStringSubmatch(value)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

// NextOccurrence returns when hour:minute next comes round after now, in
// now's location. A time within the current minute counts as now.
func NextOccurrence(now time.Time, hour, minute int) time.Time {
	due := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.Sub(due) >= time.Minute {
		due = due.AddDate(0, 0, 1)
	}
	return due
}

// Schedule validates req and arms a reminder for its next occurrence
func (s *Scheduler) Schedule(ctx context.Context, req Request) (*Reminder, error) {
	hour, minute, err := ParseTimeOfDay(req.Time)
	if err != nil {
		return nil, err
	}

	now := s.now()
	r := Reminder{
		ID:        uuid.NewString(),
		SessionID: req.SessionID,
		Message:   req.Message,
		SoundRef:  req.SoundRef,
		TimeOfDay: req.Time,
		DueAt:     NextOccurrence(now, hour, minute),
		CreatedAt: now,
	}
	if r.Message == "" {
		r.Message = DefaultMessage
	}
	if r.SoundRef == "" {
		r.SoundRef = s.defaultSound
	}

	if s.isStopped() {
		return nil, ErrStopped
	}

	if s.store != nil {
		row := toRow(r)
		if err := s.store.SaveReminder(ctx, &row); err != nil {
			return nil, fmt.Errorf("failed to persist reminder: %w", err)
		}
		if !row.CreatedAt.IsZero() {
			r.CreatedAt = row.CreatedAt
		}
	}

	if err := s.arm(r); err != nil {
		return nil, err
	}

	s.logger.Info("reminder scheduled",
		zap.String("id", r.ID),
		zap.String("time", r.TimeOfDay),
		zap.Time("due_at", r.DueAt))
	return &r, nil
}

func (s *Scheduler) arm(r Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	delay := r.DueAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	id := r.ID
	s.pending[id] = &entry{
		reminder: r,
		timer:    s.afterFunc(delay, func() { s.fire(id) }),
	}
	return nil
}

func (s *Scheduler) fire(id string) {
	s.mu.Lock()
	e, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	notifiers := append([]Notifier(nil), s.notifiers...)
	s.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	for _, n := range notifiers {
		if err := n.Notify(ctx, e.reminder); err != nil {
			s.logger.Warn("reminder notifier failed", zap.String("id", id), zap.Error(err))
		}
	}

	if s.store != nil {
		if err := s.store.MarkReminderFired(ctx, id); err != nil {
			s.logger.Warn("failed to mark reminder fired", zap.String("id", id), zap.Error(err))
		}
	}
}

// Cancel disarms a pending reminder
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.pending[id]
	if ok {
		e.timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	if s.store != nil {
		if err := s.store.DeleteReminder(ctx, id); err != nil && !errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("failed to delete reminder: %w", err)
		}
	}
	return nil
}

// List returns pending reminders soonest first. An empty sessionID lists all.
func (s *Scheduler) List(sessionID string) []Reminder {
	s.mu.Lock()
	out := make([]Reminder, 0, len(s.pending))
	for _, e := range s.pending {
		if sessionID == "" || e.reminder.SessionID == sessionID {
			out = append(out, e.reminder)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueAt.Before(out[j].DueAt)
	})
	return out
}

// Restore re-arms reminders persisted by a previous run. Reminders that came
// due while the process was down move to the next occurrence of their time.
func (s *Scheduler) Restore(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	rows, err := s.store.ListPendingReminders(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load reminders: %w", err)
	}

	restored := 0
	now := s.now()
	for _, row := range rows {
		r := fromRow(row)
		if now.Sub(r.DueAt) >= time.Minute {
			hour, minute, err := ParseTimeOfDay(r.TimeOfDay)
			if err != nil {
				s.logger.Warn("skipping stored reminder", zap.String("id", r.ID), zap.Error(err))
				continue
			}
			r.DueAt = NextOccurrence(now, hour, minute)
		}
		if err := s.arm(r); err != nil {
			return restored, err
		}
		restored++
	}
	return restored, nil
}

// Stop disarms every timer. Persisted reminders are left for Restore.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, id)
	}
}

func (s *Scheduler) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func toRow(r Reminder) db.Reminder {
	return db.Reminder{
		ID:        r.ID,
		SessionID: r.SessionID,
		Message:   r.Message,
		SoundRef:  r.SoundRef,
		TimeOfDay: r.TimeOfDay,
		DueAt:     r.DueAt,
		CreatedAt: r.CreatedAt,
	}
}

func fromRow(row db.Reminder) Reminder {
	return Reminder{
		ID:        row.ID,
		SessionID: row.SessionID,
		Message:   row.Message,
		SoundRef:  row.SoundRef,
		TimeOfDay: row.TimeOfDay,
		DueAt:     row.DueAt,
		CreatedAt: row.CreatedAt,
	}
}
