package service

import (
	"context"
	"time"

	"github.com/vintnerlabs/bop-tracker/internal/domain"
	"github.com/vintnerlabs/bop-tracker/internal/provider"
	"github.com/vintnerlabs/bop-tracker/internal/queue"
	"github.com/vintnerlabs/bop-tracker/internal/repository"
)

type fakeBatchRepo struct {
	createFn                  func(ctx context.Context, b *domain.Batch) error
	getByIDFn                 func(ctx context.Context, id string) (*domain.Batch, error)
	listByWineryFn            func(ctx context.Context, wineryID string) ([]domain.Batch, error)
	updateFn                  func(ctx context.Context, id string, update repository.BatchUpdate) (*domain.Batch, error)
	setStageDoneFn            func(ctx context.Context, id string, stage domain.Stage, done bool) (*domain.Batch, error)
	setStageDateFn            func(ctx context.Context, id string, stage domain.Stage, date time.Time) (*domain.Batch, error)
	deleteFn                  func(ctx context.Context, id string) error
	listOverdueStageBatchesFn func(ctx context.Context, before time.Time, limit int) ([]domain.Batch, error)
}

func (f *fakeBatchRepo) Create(ctx context.Context, b *domain.Batch) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, b)
}

func (f *fakeBatchRepo) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeBatchRepo) ListByWinery(ctx context.Context, wineryID string) ([]domain.Batch, error) {
	if f.listByWineryFn == nil {
		return nil, nil
	}
	return f.listByWineryFn(ctx, wineryID)
}

func (f *fakeBatchRepo) Update(ctx context.Context, id string, update repository.BatchUpdate) (*domain.Batch, error) {
	if f.updateFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.updateFn(ctx, id, update)
}

func (f *fakeBatchRepo) SetStageDone(ctx context.Context, id string, stage domain.Stage, done bool) (*domain.Batch, error) {
	if f.setStageDoneFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.setStageDoneFn(ctx, id, stage, done)
}

func (f *fakeBatchRepo) SetStageDate(ctx context.Context, id string, stage domain.Stage, date time.Time) (*domain.Batch, error) {
	if f.setStageDateFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.setStageDateFn(ctx, id, stage, date)
}

func (f *fakeBatchRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

func (f *fakeBatchRepo) ListOverdueStageBatches(ctx context.Context, before time.Time, limit int) ([]domain.Batch, error) {
	if f.listOverdueStageBatchesFn == nil {
		return nil, nil
	}
	return f.listOverdueStageBatchesFn(ctx, before, limit)
}

type fakeWineryRepo struct {
	createFn  func(ctx context.Context, w *domain.Winery) error
	getByIDFn func(ctx context.Context, id string) (*domain.Winery, error)
	listFn    func(ctx context.Context) ([]domain.Winery, error)
	updateFn  func(ctx context.Context, id string, update repository.WineryUpdate) (*domain.Winery, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (f *fakeWineryRepo) Create(ctx context.Context, w *domain.Winery) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, w)
}

func (f *fakeWineryRepo) GetByID(ctx context.Context, id string) (*domain.Winery, error) {
	if f.getByIDFn == nil {
		return &domain.Winery{ID: id, Name: "Test Winery"}, nil
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeWineryRepo) List(ctx context.Context) ([]domain.Winery, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx)
}

func (f *fakeWineryRepo) Update(ctx context.Context, id string, update repository.WineryUpdate) (*domain.Winery, error) {
	if f.updateFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.updateFn(ctx, id, update)
}

func (f *fakeWineryRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

type fakeReminderRepo struct {
	createFn                func(ctx context.Context, r *domain.Reminder) error
	getByIDFn               func(ctx context.Context, id string) (*domain.Reminder, error)
	hasOpenOrSentFn         func(ctx context.Context, batchID string, stage domain.Stage) (bool, error)
	updateStatusFn          func(ctx context.Context, id string, status domain.ReminderStatus) error
	updateStatusWithRetryFn func(ctx context.Context, id string, status domain.ReminderStatus, nextRetryAt time.Time) error
	lockForSendingFn        func(ctx context.Context, id string) (*domain.Reminder, error)
	getDueForRetryFn        func(ctx context.Context, limit int) ([]domain.Reminder, error)
	getStalePendingFn       func(ctx context.Context, olderThan time.Time, limit int) ([]domain.Reminder, error)
	clearNextRetryAtFn      func(ctx context.Context, id string) error
}

func (f *fakeReminderRepo) Create(ctx context.Context, r *domain.Reminder) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, r)
}

func (f *fakeReminderRepo) GetByID(ctx context.Context, id string) (*domain.Reminder, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeReminderRepo) HasOpenOrSent(ctx context.Context, batchID string, stage domain.Stage) (bool, error) {
	if f.hasOpenOrSentFn == nil {
		return false, nil
	}
	return f.hasOpenOrSentFn(ctx, batchID, stage)
}

func (f *fakeReminderRepo) UpdateStatus(ctx context.Context, id string, status domain.ReminderStatus) error {
	if f.updateStatusFn == nil {
		return nil
	}
	return f.updateStatusFn(ctx, id, status)
}

func (f *fakeReminderRepo) UpdateStatusWithRetry(ctx context.Context, id string, status domain.ReminderStatus, nextRetryAt time.Time) error {
	if f.updateStatusWithRetryFn == nil {
		return nil
	}
	return f.updateStatusWithRetryFn(ctx, id, status, nextRetryAt)
}

func (f *fakeReminderRepo) LockForSending(ctx context.Context, id string) (*domain.Reminder, error) {
	if f.lockForSendingFn == nil {
		return nil, nil
	}
	return f.lockForSendingFn(ctx, id)
}

func (f *fakeReminderRepo) GetDueForRetry(ctx context.Context, limit int) ([]domain.Reminder, error) {
	if f.getDueForRetryFn == nil {
		return nil, nil
	}
	return f.getDueForRetryFn(ctx, limit)
}

func (f *fakeReminderRepo) GetStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Reminder, error) {
	if f.getStalePendingFn == nil {
		return nil, nil
	}
	return f.getStalePendingFn(ctx, olderThan, limit)
}

func (f *fakeReminderRepo) ClearNextRetryAt(ctx context.Context, id string) error {
	if f.clearNextRetryAtFn == nil {
		return nil
	}
	return f.clearNextRetryAtFn(ctx, id)
}

type fakeAttemptRepo struct {
	createFn         func(ctx context.Context, a *domain.ReminderAttempt) error
	listByReminderFn func(ctx context.Context, reminderID string) ([]domain.ReminderAttempt, error)
}

func (f *fakeAttemptRepo) Create(ctx context.Context, a *domain.ReminderAttempt) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, a)
}

func (f *fakeAttemptRepo) ListByReminder(ctx context.Context, reminderID string) ([]domain.ReminderAttempt, error) {
	if f.listByReminderFn == nil {
		return nil, nil
	}
	return f.listByReminderFn(ctx, reminderID)
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, msg queue.ReminderMessage) error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.ReminderMessage) error {
	if f.publishFn == nil {
		return nil
	}
	return f.publishFn(ctx, queueName, msg)
}

func (f *fakePublisher) Close() error { return nil }

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queueName string, handler queue.MessageHandler) error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn == nil {
		<-ctx.Done()
		return nil
	}
	return f.consumeFn(ctx, queueName, handler)
}

func (f *fakeConsumer) Close() error { return nil }

type fakeProvider struct {
	sendFn func(ctx context.Context, email provider.ReminderEmail) (*provider.ProviderResponse, error)
}

func (f *fakeProvider) Send(ctx context.Context, email provider.ReminderEmail) (*provider.ProviderResponse, error) {
	if f.sendFn == nil {
		return &provider.ProviderResponse{StatusCode: 200}, nil
	}
	return f.sendFn(ctx, email)
}

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, wineryID string) (bool, error)
	waitFn  func(ctx context.Context, wineryID string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, wineryID string) (bool, error) {
	if f.allowFn == nil {
		return true, nil
	}
	return f.allowFn(ctx, wineryID)
}

func (f *fakeRateLimiter) Wait(ctx context.Context, wineryID string) error {
	if f.waitFn == nil {
		return nil
	}
	return f.waitFn(ctx, wineryID)
}
