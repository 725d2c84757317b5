package repository

import (
	"time"

	"github.com/vintnerlabs/bop-tracker/internal/domain"
)

// Persistence models are kept separate from domain structs so storage
// tags and column shapes never leak into the core.

type WineryModel struct {
	ID            string  `gorm:"type:uuid;primaryKey"`
	Name          string  `gorm:"type:varchar(255);not null"`
	ContactEmail  *string `gorm:"type:varchar(255)"`
	NextBOPNumber int64   `gorm:"column:next_bop_number;not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (WineryModel) TableName() string {
	return "wineries"
}

type BatchModel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	WineryID  string `gorm:"type:uuid;not null"`
	BOPNumber int64  `gorm:"column:bop_number;not null"`

	CustomerName     string  `gorm:"type:varchar(255);not null"`
	CustomerEmail    *string `gorm:"type:varchar(255)"`
	WineKitName      string  `gorm:"type:varchar(255);not null"`
	KitDurationWeeks int     `gorm:"not null"`
	DateOfSale       time.Time
	Notes            *string `gorm:"type:text"`

	PutUpDate  *time.Time
	RackDate   *time.Time
	FilterDate *time.Time
	BottleDate *time.Time

	PutUpDone  bool `gorm:"not null;default:false"`
	RackDone   bool `gorm:"not null;default:false"`
	FilterDone bool `gorm:"not null;default:false"`
	BottleDone bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BatchModel) TableName() string {
	return "batches"
}

type ReminderModel struct {
	ID            string     `gorm:"type:uuid;primaryKey"`
	WineryID      string     `gorm:"type:uuid;not null"`
	BatchID       string     `gorm:"type:uuid;not null"`
	Stage         string     `gorm:"type:varchar(10);not null"`
	DueDate       time.Time  `gorm:"not null"`
	Recipient     string     `gorm:"type:varchar(255);not null"`
	CorrelationID string     `gorm:"type:varchar(36);not null"`
	Status        string     `gorm:"type:varchar(20);not null"`
	AttemptCount  int        `gorm:"not null;default:0"`
	MaxAttempts   int        `gorm:"not null;default:5"`
	NextRetryAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ReminderModel) TableName() string {
	return "reminders"
}

type ReminderAttemptModel struct {
	ID            string  `gorm:"type:uuid;primaryKey"`
	ReminderID    string  `gorm:"type:uuid;not null"`
	AttemptNumber int     `gorm:"not null"`
	StatusCode    *int    `gorm:"type:int"`
	ResponseBody  *string `gorm:"type:text"`
	Error         *string `gorm:"type:text"`
	CreatedAt     time.Time
}

func (ReminderAttemptModel) TableName() string {
	return "reminder_attempts"
}

func wineryModelFromDomain(w *domain.Winery) *WineryModel {
	if w == nil {
		return nil
	}
	return &WineryModel{
		ID:            w.ID,
		Name:          w.Name,
		ContactEmail:  w.ContactEmail,
		NextBOPNumber: w.NextBOPNumber,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

func wineryModelToDomain(m *WineryModel) *domain.Winery {
	if m == nil {
		return nil
	}
	return &domain.Winery{
		ID:            m.ID,
		Name:          m.Name,
		ContactEmail:  m.ContactEmail,
		NextBOPNumber: m.NextBOPNumber,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func batchModelFromDomain(b *domain.Batch) *BatchModel {
	if b == nil {
		return nil
	}
	return &BatchModel{
		ID:               b.ID,
		WineryID:         b.WineryID,
		BOPNumber:        b.BOPNumber,
		CustomerName:     b.CustomerName,
		CustomerEmail:    b.CustomerEmail,
		WineKitName:      b.WineKitName,
		KitDurationWeeks: b.KitDurationWeeks.Weeks(),
		DateOfSale:       b.DateOfSale,
		Notes:            b.Notes,
		PutUpDate:        b.PutUpDate,
		RackDate:         b.RackDate,
		FilterDate:       b.FilterDate,
		BottleDate:       b.BottleDate,
		PutUpDone:        b.PutUpDone,
		RackDone:         b.RackDone,
		FilterDone:       b.FilterDone,
		BottleDone:       b.BottleDone,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func batchModelToDomain(m *BatchModel) *domain.Batch {
	if m == nil {
		return nil
	}
	return &domain.Batch{
		ID:               m.ID,
		WineryID:         m.WineryID,
		BOPNumber:        m.BOPNumber,
		CustomerName:     m.CustomerName,
		CustomerEmail:    m.CustomerEmail,
		WineKitName:      m.WineKitName,
		KitDurationWeeks: domain.KitDuration(m.KitDurationWeeks),
		DateOfSale:       m.DateOfSale,
		Notes:            m.Notes,
		PutUpDate:        m.PutUpDate,
		RackDate:         m.RackDate,
		FilterDate:       m.FilterDate,
		BottleDate:       m.BottleDate,
		PutUpDone:        m.PutUpDone,
		RackDone:         m.RackDone,
		FilterDone:       m.FilterDone,
		BottleDone:       m.BottleDone,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func reminderModelFromDomain(r *domain.Reminder) *ReminderModel {
	if r == nil {
		return nil
	}
	return &ReminderModel{
		ID:            r.ID,
		WineryID:      r.WineryID,
		BatchID:       r.BatchID,
		Stage:         r.Stage.String(),
		DueDate:       r.DueDate,
		Recipient:     r.Recipient,
		CorrelationID: r.CorrelationID,
		Status:        r.Status.String(),
		AttemptCount:  r.AttemptCount,
		MaxAttempts:   r.MaxAttempts,
		NextRetryAt:   r.NextRetryAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func reminderModelToDomain(m *ReminderModel) *domain.Reminder {
	if m == nil {
		return nil
	}
	return &domain.Reminder{
		ID:            m.ID,
		WineryID:      m.WineryID,
		BatchID:       m.BatchID,
		Stage:         domain.Stage(m.Stage),
		DueDate:       m.DueDate,
		Recipient:     m.Recipient,
		CorrelationID: m.CorrelationID,
		Status:        domain.ReminderStatus(m.Status),
		AttemptCount:  m.AttemptCount,
		MaxAttempts:   m.MaxAttempts,
		NextRetryAt:   m.NextRetryAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func attemptModelFromDomain(a *domain.ReminderAttempt) *ReminderAttemptModel {
	if a == nil {
		return nil
	}
	return &ReminderAttemptModel{
		ID:            a.ID,
		ReminderID:    a.ReminderID,
		AttemptNumber: a.AttemptNumber,
		StatusCode:    a.StatusCode,
		ResponseBody:  a.ResponseBody,
		Error:         a.Error,
		CreatedAt:     a.CreatedAt,
	}
}

func attemptModelToDomain(m *ReminderAttemptModel) *domain.ReminderAttempt {
	if m == nil {
		return nil
	}
	return &domain.ReminderAttempt{
		ID:            m.ID,
		ReminderID:    m.ReminderID,
		AttemptNumber: m.AttemptNumber,
		StatusCode:    m.StatusCode,
		ResponseBody:  m.ResponseBody,
		Error:         m.Error,
		CreatedAt:     m.CreatedAt,
	}
}
