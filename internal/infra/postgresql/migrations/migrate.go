package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/vintnerlabs/bop-tracker/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_wineries",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.WineryModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.WineryModel{})
			},
		},
		{
			ID: "000002_create_batches",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.BatchModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_batches_winery_bop ON batches (winery_id, bop_number)`,
					`CREATE INDEX IF NOT EXISTS idx_batches_winery_created ON batches (winery_id, created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_batches_bottle_date ON batches (bottle_date) WHERE bottle_date IS NOT NULL`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.BatchModel{})
			},
		},
		{
			ID: "000003_create_reminders",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.ReminderModel{}); err != nil {
					return err
				}
				indexes := []string{
					// One live reminder per (batch, stage); failed ones may be replaced.
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_reminders_batch_stage_live ON reminders (batch_id, stage) WHERE status <> 'FAILED'`,
					`CREATE INDEX IF NOT EXISTS idx_reminders_retry ON reminders (next_retry_at) WHERE status = 'QUEUED'`,
					`CREATE INDEX IF NOT EXISTS idx_reminders_winery ON reminders (winery_id)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ReminderModel{})
			},
		},
		{
			ID: "000004_create_reminder_attempts",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.ReminderAttemptModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_reminder_attempts_reminder_id ON reminder_attempts (reminder_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ReminderAttemptModel{})
			},
		},
	})

	return m.Migrate()
}
