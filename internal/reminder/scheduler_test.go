package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/themobileprof/medibot-be/internal/db"
)

var _ Store = (*db.DB)(nil)

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// newTestScheduler returns a scheduler on a fixed clock whose timers are
// fired by hand.
func newTestScheduler(t *testing.T, now time.Time, opts ...Option) (*Scheduler, *[]*fakeTimer) {
	t.Helper()
	timers := &[]*fakeTimer{}
	s := NewScheduler(nil, opts...)
	s.now = func() time.Time { return now }
	s.afterFunc = func(d time.Duration, f func()) stopper {
		ft := &fakeTimer{delay: d, fn: f}
		*timers = append(*timers, ft)
		return ft
	}
	return s, timers
}

type recorder struct {
	mu    sync.Mutex
	fired []Reminder
	err   error
}

func (r *recorder) Notify(_ context.Context, rem Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, rem)
	return r.err
}

type memStore struct {
	rows    map[string]db.Reminder
	fired   []string
	saveErr error
}

func newMemStore() *memStore { return &memStore{rows: make(map[string]db.Reminder)} }

func (m *memStore) SaveReminder(_ context.Context, r *db.Reminder) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	r.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.rows[r.ID] = *r
	return nil
}

func (m *memStore) ListPendingReminders(context.Context) ([]db.Reminder, error) {
	var out []db.Reminder
	for _, r := range m.rows {
		if !r.Fired {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) MarkReminderFired(_ context.Context, id string) error {
	m.fired = append(m.fired, id)
	return nil
}

func (m *memStore) DeleteReminder(_ context.Context, id string) error {
	if _, ok := m.rows[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input      string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{input: "14:30", wantHour: 14, wantMinute: 30},
		{input: "00:00"},
		{input: "23:59", wantHour: 23, wantMinute: 59},
		{input: "24:00", wantErr: true},
		{input: "9:30", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "noon", wantErr: true},
		{input: "", wantErr: true},
		{input: " 14:30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			h, m, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimeFormat) {
					t.Errorf("error = %v, want ErrInvalidTimeFormat", err)
				}
				return
			}
			if err != nil || h != tt.wantHour || m != tt.wantMinute {
				t.Errorf("ParseTimeOfDay = %d, %d, %v", h, m, err)
			}
		})
	}
}

func TestNextOccurrence(t *testing.T) {
	base := time.Date(2026, 3, 10, 14, 30, 20, 0, time.UTC)
	tests := []struct {
		name         string
		hour, minute int
		want         time.Time
	}{
		{name: "later today", hour: 18, minute: 0, want: time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)},
		{name: "current minute", hour: 14, minute: 30, want: time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)},
		{name: "already passed", hour: 14, minute: 29, want: time.Date(2026, 3, 11, 14, 29, 0, 0, time.UTC)},
		{name: "midnight", hour: 0, minute: 0, want: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextOccurrence(base, tt.hour, tt.minute); !got.Equal(tt.want) {
				t.Errorf("NextOccurrence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScheduler_ScheduleAndFire(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	rec := &recorder{}
	s, timers := newTestScheduler(t, now, WithNotifiers(rec), WithDefaultSound("alarm.mp3"))

	r, err := s.Schedule(context.Background(), Request{Time: "14:30", SessionID: "abc"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if r.ID == "" || r.Message != DefaultMessage || r.SoundRef != "alarm.mp3" {
		t.Errorf("reminder = %+v", r)
	}
	if len(*timers) != 1 || (*timers)[0].delay != 30*time.Minute {
		t.Fatalf("timers = %+v, want one 30m timer", *timers)
	}
	if got := s.List(""); len(got) != 1 {
		t.Errorf("List = %d reminders, want 1", len(got))
	}

	(*timers)[0].fn()

	if len(rec.fired) != 1 || rec.fired[0].ID != r.ID {
		t.Errorf("fired = %+v", rec.fired)
	}
	if got := s.List(""); len(got) != 0 {
		t.Errorf("List after fire = %d, want 0", len(got))
	}

	// a second fire of the same timer is a no-op
	(*timers)[0].fn()
	if len(rec.fired) != 1 {
		t.Errorf("fired twice")
	}
}

func TestScheduler_ScheduleInvalidTime(t *testing.T) {
	s, timers := newTestScheduler(t, time.Now())
	if _, err := s.Schedule(context.Background(), Request{Time: "25:00"}); !errors.Is(err, ErrInvalidTimeFormat) {
		t.Errorf("error = %v, want ErrInvalidTimeFormat", err)
	}
	if len(*timers) != 0 {
		t.Errorf("timer armed for invalid request")
	}
}

func TestScheduler_NotifierErrorDoesNotStopOthers(t *testing.T) {
	failing := &recorder{err: errors.New("socket closed")}
	ok := &recorder{}
	s, timers := newTestScheduler(t, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), WithNotifiers(failing))
	s.AddNotifier(ok)

	if _, err := s.Schedule(context.Background(), Request{Time: "09:00", Message: "Vitamin D"}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	(*timers)[0].fn()

	if len(failing.fired) != 1 || len(ok.fired) != 1 || ok.fired[0].Message != "Vitamin D" {
		t.Errorf("failing = %d, ok = %+v", len(failing.fired), ok.fired)
	}
}

func TestScheduler_Cancel(t *testing.T) {
	store := newMemStore()
	s, timers := newTestScheduler(t, time.Now(), WithStore(store))

	r, err := s.Schedule(context.Background(), Request{Time: "10:15"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := s.Cancel(context.Background(), r.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !(*timers)[0].stopped {
		t.Error("timer not stopped")
	}
	if _, ok := store.rows[r.ID]; ok {
		t.Error("reminder still persisted after cancel")
	}
	if err := s.Cancel(context.Background(), r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Cancel = %v, want ErrNotFound", err)
	}
}

func TestScheduler_ListFiltersAndSorts(t *testing.T) {
	s, _ := newTestScheduler(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	s.Schedule(ctx, Request{Time: "20:00", SessionID: "a"})
	s.Schedule(ctx, Request{Time: "13:00", SessionID: "b"})
	s.Schedule(ctx, Request{Time: "08:00", SessionID: "a"})

	all := s.List("")
	if len(all) != 3 || all[0].TimeOfDay != "13:00" || all[1].TimeOfDay != "20:00" || all[2].TimeOfDay != "08:00" {
		t.Errorf("List order = %v, %v, %v", all[0].TimeOfDay, all[1].TimeOfDay, all[2].TimeOfDay)
	}
	if got := s.List("a"); len(got) != 2 {
		t.Errorf("List(a) = %d, want 2", len(got))
	}
}

func TestScheduler_StorePersistsAndMarksFired(t *testing.T) {
	store := newMemStore()
	s, timers := newTestScheduler(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), WithStore(store))

	r, err := s.Schedule(context.Background(), Request{Time: "12:05"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if _, ok := store.rows[r.ID]; !ok {
		t.Fatal("reminder not persisted")
	}
	if r.CreatedAt.Year() != 2026 || r.CreatedAt.Month() != time.January {
		t.Errorf("CreatedAt = %v, want store timestamp", r.CreatedAt)
	}

	(*timers)[0].fn()
	if len(store.fired) != 1 || store.fired[0] != r.ID {
		t.Errorf("fired ids = %v", store.fired)
	}
}

func TestScheduler_StoreError(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("connection refused")
	s, timers := newTestScheduler(t, time.Now(), WithStore(store))

	if _, err := s.Schedule(context.Background(), Request{Time: "07:00"}); err == nil {
		t.Fatal("expected error")
	}
	if len(*timers) != 0 || len(s.List("")) != 0 {
		t.Error("reminder armed despite persistence failure")
	}
}

func TestScheduler_Restore(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.rows["future"] = db.Reminder{ID: "future", TimeOfDay: "18:00", Message: "m", DueAt: now.Add(6 * time.Hour)}
	store.rows["missed"] = db.Reminder{ID: "missed", TimeOfDay: "09:00", Message: "m", DueAt: now.Add(-3 * time.Hour)}
	store.rows["broken"] = db.Reminder{ID: "broken", TimeOfDay: "9am", Message: "m", DueAt: now.Add(-time.Hour)}

	s, _ := newTestScheduler(t, now, WithStore(store))
	n, err := s.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if n != 2 {
		t.Errorf("restored = %d, want 2", n)
	}

	got := s.List("")
	if len(got) != 2 || got[0].ID != "future" || got[1].ID != "missed" {
		t.Fatalf("List = %+v", got)
	}
	if want := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC); !got[1].DueAt.Equal(want) {
		t.Errorf("missed DueAt = %v, want %v", got[1].DueAt, want)
	}
}

func TestScheduler_RestoreWithoutStore(t *testing.T) {
	s := NewScheduler(nil)
	if n, err := s.Restore(context.Background()); n != 0 || err != nil {
		t.Errorf("Restore = %d, %v", n, err)
	}
}

func TestScheduler_Stop(t *testing.T) {
	s, timers := newTestScheduler(t, time.Now())
	s.Schedule(context.Background(), Request{Time: "06:00"})
	s.Stop()

	if !(*timers)[0].stopped || len(s.List("")) != 0 {
		t.Error("Stop left a timer armed")
	}
	if _, err := s.Schedule(context.Background(), Request{Time: "06:00"}); !errors.Is(err, ErrStopped) {
		t.Errorf("Schedule after Stop = %v, want ErrStopped", err)
	}
}

func TestScheduler_RealTimerFires(t *testing.T) {
	if time.Now().Second() >= 58 {
		time.Sleep(3 * time.Second)
	}
	now := time.Now()
	fired := make(chan Reminder, 1)
	s := NewScheduler(nil, WithNotifiers(NotifierFunc(func(_ context.Context, r Reminder) error {
		fired <- r
		return nil
	})))
	defer s.Stop()

	// current minute fires without delay
	if _, err := s.Schedule(context.Background(), Request{Time: now.Format("15:04")}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("reminder did not fire")
	}
}

func TestScheduler_WithDBStore(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectQuery("INSERT INTO reminders").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec("DELETE FROM reminders").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s, _ := newTestScheduler(t, time.Now(), WithStore(db.Wrap(sqlDB)))
	r, err := s.Schedule(context.Background(), Request{Time: "21:00", Message: "Antibiotics"})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := s.Cancel(context.Background(), r.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
