package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"github.com/vintnerlabs/bop-tracker/internal/queue"
	"go.uber.org/zap"
)

func TestReminderScannerEnqueuesOverdueStages(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)
	overdue := halifaxDay(t, cal, 2024, time.July, 1)
	email := "customer@example.com"

	batches := &fakeBatchRepo{
		listOverdueStageBatchesFn: func(ctx context.Context, before time.Time, limit int) ([]domain.Batch, error) {
			return []domain.Batch{
				{ID: "b1", WineryID: "w1", BOPNumber: 7, CustomerEmail: &email, PutUpDate: &overdue},
			}, nil
		},
	}

	var created *domain.Reminder
	var statuses []domain.ReminderStatus
	reminders := &fakeReminderRepo{
		createFn: func(ctx context.Context, r *domain.Reminder) error {
			created = r
			return nil
		},
		updateStatusFn: func(ctx context.Context, id string, status domain.ReminderStatus) error {
			statuses = append(statuses, status)
			return nil
		},
	}

	var published []queue.ReminderMessage
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.ReminderMessage) error {
			if queueName != queue.RemindersQueue {
				t.Fatalf("queue = %q, want %q", queueName, queue.RemindersQueue)
			}
			published = append(published, msg)
			return nil
		},
	}

	scanner, err := NewReminderScanner(batches, reminders, publisher, cal, time.Minute, 50, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReminderScanner() error = %v", err)
	}
	scanner.now = func() time.Time { return halifaxDay(t, cal, 2024, time.July, 10) }

	if err := scanner.scanOverdue(context.Background()); err != nil {
		t.Fatalf("scanOverdue() error = %v", err)
	}

	if created == nil {
		t.Fatal("reminder should be created")
	}
	if created.Status != domain.ReminderStatusPending {
		t.Fatalf("created status = %s, want PENDING", created.Status)
	}
	if created.Stage != domain.StagePutUp {
		t.Fatalf("created stage = %s, want PUT_UP", created.Stage)
	}
	if created.Recipient != email {
		t.Fatalf("recipient = %q, want %q", created.Recipient, email)
	}

	if len(published) != 1 {
		t.Fatalf("published = %d messages, want 1", len(published))
	}
	if published[0].ReminderID != created.ID || published[0].BatchID != "b1" {
		t.Fatalf("published message = %+v", published[0])
	}

	if len(statuses) != 1 || statuses[0] != domain.ReminderStatusQueued {
		t.Fatalf("statuses = %v, want [QUEUED]", statuses)
	}
}

func TestReminderScannerSkipsBatchesWithoutEmail(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)
	overdue := halifaxDay(t, cal, 2024, time.July, 1)

	batches := &fakeBatchRepo{
		listOverdueStageBatchesFn: func(ctx context.Context, before time.Time, limit int) ([]domain.Batch, error) {
			return []domain.Batch{
				{ID: "b1", WineryID: "w1", PutUpDate: &overdue},
			}, nil
		},
	}

	reminders := &fakeReminderRepo{
		createFn: func(ctx context.Context, r *domain.Reminder) error {
			t.Fatal("no reminder should be created without a recipient")
			return nil
		},
	}

	scanner, err := NewReminderScanner(batches, reminders, &fakePublisher{}, cal, time.Minute, 50, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReminderScanner() error = %v", err)
	}
	scanner.now = func() time.Time { return halifaxDay(t, cal, 2024, time.July, 10) }

	if err := scanner.scanOverdue(context.Background()); err != nil {
		t.Fatalf("scanOverdue() error = %v", err)
	}
}

func TestReminderScannerDeduplicatesLiveReminders(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)
	overdue := halifaxDay(t, cal, 2024, time.July, 1)
	email := "customer@example.com"

	batches := &fakeBatchRepo{
		listOverdueStageBatchesFn: func(ctx context.Context, before time.Time, limit int) ([]domain.Batch, error) {
			return []domain.Batch{
				{ID: "b1", WineryID: "w1", CustomerEmail: &email, PutUpDate: &overdue},
			}, nil
		},
	}

	reminders := &fakeReminderRepo{
		hasOpenOrSentFn: func(ctx context.Context, batchID string, stage domain.Stage) (bool, error) {
			return true, nil
		},
		createFn: func(ctx context.Context, r *domain.Reminder) error {
			t.Fatal("duplicate reminder must not be created")
			return nil
		},
	}

	scanner, err := NewReminderScanner(batches, reminders, &fakePublisher{}, cal, time.Minute, 50, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReminderScanner() error = %v", err)
	}
	scanner.now = func() time.Time { return halifaxDay(t, cal, 2024, time.July, 10) }

	if err := scanner.scanOverdue(context.Background()); err != nil {
		t.Fatalf("scanOverdue() error = %v", err)
	}
}

func TestReminderScannerRepublishesStalePending(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)
	overdue := halifaxDay(t, cal, 2024, time.July, 1)
	email := "customer@example.com"

	batches := &fakeBatchRepo{
		listOverdueStageBatchesFn: func(ctx context.Context, before time.Time, limit int) ([]domain.Batch, error) {
			return []domain.Batch{
				{ID: "b1", WineryID: "w1", CustomerEmail: &email, PutUpDate: &overdue},
			}, nil
		},
	}

	current := halifaxDay(t, cal, 2024, time.July, 10)

	// Stateful fake: one stored row, status transitions applied in place.
	var stored *domain.Reminder
	reminders := &fakeReminderRepo{
		createFn: func(ctx context.Context, r *domain.Reminder) error {
			r.UpdatedAt = current
			stored = r
			return nil
		},
		hasOpenOrSentFn: func(ctx context.Context, batchID string, stage domain.Stage) (bool, error) {
			return stored != nil && stored.Status != domain.ReminderStatusFailed, nil
		},
		getStalePendingFn: func(ctx context.Context, olderThan time.Time, limit int) ([]domain.Reminder, error) {
			if stored == nil || stored.Status != domain.ReminderStatusPending || stored.UpdatedAt.After(olderThan) {
				return nil, nil
			}
			return []domain.Reminder{*stored}, nil
		},
		updateStatusFn: func(ctx context.Context, id string, status domain.ReminderStatus) error {
			if stored == nil || stored.ID != id {
				return domain.ErrNotFound
			}
			stored.Status = status
			return nil
		},
	}

	publishCalls := 0
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.ReminderMessage) error {
			publishCalls++
			if publishCalls == 1 {
				return fmt.Errorf("broker unavailable")
			}
			return nil
		},
	}

	scanner, err := NewReminderScanner(batches, reminders, publisher, cal, time.Minute, 50, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReminderScanner() error = %v", err)
	}
	scanner.now = func() time.Time { return current }

	// First tick: the row is inserted but the publish fails, leaving it
	// stranded in PENDING. Its fresh updated_at keeps the same tick's
	// stale-pending pass from touching it.
	if err := scanner.scan(context.Background()); err != nil {
		t.Fatalf("scan() error = %v", err)
	}
	if stored == nil {
		t.Fatal("reminder should be created")
	}
	if stored.Status != domain.ReminderStatusPending {
		t.Fatalf("status after failed publish = %s, want PENDING", stored.Status)
	}
	if publishCalls != 1 {
		t.Fatalf("publishCalls after first tick = %d, want 1", publishCalls)
	}

	// Second tick: the dedupe check still sees the live row, so recovery
	// must come from the stale-pending pass.
	current = current.Add(2 * time.Minute)
	if err := scanner.scan(context.Background()); err != nil {
		t.Fatalf("scan() error = %v", err)
	}

	if publishCalls != 2 {
		t.Fatalf("publishCalls = %d, want 2", publishCalls)
	}
	if stored.Status != domain.ReminderStatusQueued {
		t.Fatalf("status after recovery = %s, want QUEUED", stored.Status)
	}
}

func TestReminderScannerIgnoresDoneAndFutureStages(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)
	past := halifaxDay(t, cal, 2024, time.July, 1)
	future := halifaxDay(t, cal, 2024, time.August, 1)
	email := "customer@example.com"

	batches := &fakeBatchRepo{
		listOverdueStageBatchesFn: func(ctx context.Context, before time.Time, limit int) ([]domain.Batch, error) {
			return []domain.Batch{
				{
					ID: "b1", WineryID: "w1", CustomerEmail: &email,
					PutUpDate: &past, PutUpDone: true,
					RackDate: &future,
				},
			}, nil
		},
	}

	reminders := &fakeReminderRepo{
		createFn: func(ctx context.Context, r *domain.Reminder) error {
			t.Fatalf("unexpected reminder for stage %s", r.Stage)
			return nil
		},
	}

	scanner, err := NewReminderScanner(batches, reminders, &fakePublisher{}, cal, time.Minute, 50, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReminderScanner() error = %v", err)
	}
	scanner.now = func() time.Time { return halifaxDay(t, cal, 2024, time.July, 10) }

	if err := scanner.scanOverdue(context.Background()); err != nil {
		t.Fatalf("scanOverdue() error = %v", err)
	}
}
