package connection

import (
	"fleetops/internal/attendance"
	"fleetops/internal/checklist"
	"fleetops/internal/duty"

	"gorm.io/gorm"
)

// PrepareSchema migrates the lifecycle tables and creates the partial
// unique index GORM tags cannot express: at most one OPEN duty per driver
// per civil day. Closed sessions never collide, so the predicate keeps
// history insertable.
func PrepareSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&checklist.CatalogItem{},
		&attendance.Attendance{},
		&duty.DutyRecord{},
		&duty.ChecklistRow{},
	); err != nil {
		return err
	}

	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + duty.OpenIndexName +
			` ON duty_records (driver_id, opened_on_day) WHERE status = 'OPEN'`,
	).Error
}
