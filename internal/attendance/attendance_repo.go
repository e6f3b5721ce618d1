package attendance

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	CreateOpen(ctx context.Context, a *Attendance) error
	FindByID(ctx context.Context, id, driverID string) (*Attendance, error)
	FindByDriverAndDate(ctx context.Context, driverID string, date time.Time) (*Attendance, error)
	FindAllByDriver(ctx context.Context, driverID string) ([]Attendance, error)
	CloseOpen(ctx context.Context, id, driverID string, fields map[string]any) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateOpen(ctx context.Context, a *Attendance) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) FindByID(ctx context.Context, id, driverID string) (*Attendance, error) {
	var a Attendance
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("driver_id = ?", driverID).
		First(&a).Error
	return &a, err
}

func (r *repository) FindByDriverAndDate(ctx context.Context, driverID string, date time.Time) (*Attendance, error) {
	var a Attendance
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Where("attendance_date = ?", date.Format("2006-01-02")).
		First(&a).Error
	return &a, err
}

func (r *repository) FindAllByDriver(ctx context.Context, driverID string) ([]Attendance, error) {
	var rows []Attendance
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("attendance_date DESC, checkin_time DESC").
		Find(&rows).Error
	return rows, err
}

// CloseOpen transitions exactly the targeted OPEN row to CLOSED. The
// status predicate makes the update a compare-and-swap: a retried checkout
// against an already closed row affects zero rows.
func (r *repository) CloseOpen(ctx context.Context, id, driverID string, fields map[string]any) (int64, error) {
	fields["status"] = StatusClosed
	res := r.db.WithContext(ctx).
		Model(&Attendance{}).
		Where("id = ?", id).
		Where("driver_id = ?", driverID).
		Where("status = ?", StatusOpen).
		Updates(fields)
	return res.RowsAffected, res.Error
}
