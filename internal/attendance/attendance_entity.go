package attendance

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// Attendance is one punch-in row. The composite unique index makes the
// one-record-per-driver-per-civil-day rule a database guarantee; a
// concurrent duplicate check-in surfaces as a unique violation, which the
// service treats as the expected conflict outcome.
type Attendance struct {
	ID                   uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	DriverID             string     `gorm:"column:driver_id;type:varchar(64);not null;uniqueIndex:uq_attendance_driver_day"`
	AttendanceDate       time.Time  `gorm:"column:attendance_date;type:date;not null;uniqueIndex:uq_attendance_driver_day"`
	CheckinTime          time.Time  `gorm:"column:checkin_time;type:timestamptz;not null"`
	CheckinImageRef      string     `gorm:"column:checkin_image_ref;type:varchar(255);not null"`
	CheckinLocationName  string     `gorm:"column:checkin_location_name;type:varchar(255)"`
	CheckinLat           float64    `gorm:"column:checkin_lat"`
	CheckinLon           float64    `gorm:"column:checkin_lon"`
	CheckoutTime         *time.Time `gorm:"column:checkout_time;type:timestamptz"`
	CheckoutImageRef     *string    `gorm:"column:checkout_image_ref;type:varchar(255)"`
	CheckoutLocationName *string    `gorm:"column:checkout_location_name;type:varchar(255)"`
	Status               string     `gorm:"column:status;type:varchar(10);not null;default:OPEN"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at"`
}

func (Attendance) TableName() string {
	return "attendances"
}
