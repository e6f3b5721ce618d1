package duty

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"

	PhaseStart = "START"
	PhaseEnd   = "END"

	ActionStart = "START"
	ActionEnd   = "END"
)

// OpenIndexName is the partial unique index over OPEN rows that makes
// "at most one open duty per driver per day" a database guarantee. GORM
// tags cannot express a partial index, so it is created with raw SQL
// during schema preparation.
const OpenIndexName = "uq_duty_open_driver_day"

// DutyRecord is one vehicle duty session, bounded by start/end odometer
// readings and a safety checklist on both transitions. A session is keyed
// to the driver-local civil date of its start (OpenedOnDay); it may cross
// midnight and stays closeable the next day.
type DutyRecord struct {
	ID                    uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	DriverID              string     `gorm:"column:driver_id;type:varchar(64);not null;index"`
	OpenedOnDay           time.Time  `gorm:"column:opened_on_day;type:date;not null"`
	DutyInTime            time.Time  `gorm:"column:duty_in_time;type:timestamptz;not null"`
	StartOdometerImageRef string     `gorm:"column:start_odometer_image_ref;type:varchar(255);not null"`
	StartOdometerValue    int64      `gorm:"column:start_odometer_value;not null"`
	DutyOutTime           *time.Time `gorm:"column:duty_out_time;type:timestamptz"`
	EndOdometerImageRef   *string    `gorm:"column:end_odometer_image_ref;type:varchar(255)"`
	EndOdometerValue      *int64     `gorm:"column:end_odometer_value"`
	Status                string     `gorm:"column:status;type:varchar(10);not null;default:OPEN"`
	CreatedAt             time.Time  `gorm:"column:created_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at"`

	Checklist []ChecklistRow `gorm:"foreignKey:DutyID;references:ID"`
}

func (DutyRecord) TableName() string {
	return "duty_records"
}

// ChecklistRow is one verdict of a duty transition, stored as a typed row
// rather than a serialized blob so it stays queryable and validated.
type ChecklistRow struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	DutyID   uuid.UUID `gorm:"column:duty_id;type:uuid;not null;index"`
	Phase    string    `gorm:"column:phase;type:varchar(10);not null"`
	ItemID   string    `gorm:"column:item_id;type:varchar(50);not null"`
	Name     string    `gorm:"column:name;type:varchar(100);not null"`
	Passed   bool      `gorm:"column:passed;not null"`
	PhotoRef *string   `gorm:"column:photo_ref;type:varchar(255)"`
	Position int       `gorm:"column:position;not null;default:0"`
}

func (ChecklistRow) TableName() string {
	return "duty_checklist_rows"
}
