package duty

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	CreateOpen(ctx context.Context, d *DutyRecord, rows []ChecklistRow) error
	FindOpenByDriver(ctx context.Context, driverID string) (*DutyRecord, error)
	FindByID(ctx context.Context, id string) (*DutyRecord, error)
	FindAllByDriver(ctx context.Context, driverID string) ([]DutyRecord, error)
	CloseOpen(ctx context.Context, id string, fields map[string]any, rows []ChecklistRow) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateOpen(ctx context.Context, d *DutyRecord, rows []ChecklistRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(d).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].DutyID = d.ID
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindOpenByDriver returns the most recent OPEN session. More than one can
// only exist after a historic race that predates the partial unique index;
// closing the newest first is the documented recovery order.
func (r *repository) FindOpenByDriver(ctx context.Context, driverID string) (*DutyRecord, error) {
	var d DutyRecord
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Where("status = ?", StatusOpen).
		Order("duty_in_time DESC").
		First(&d).Error
	return &d, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*DutyRecord, error) {
	var d DutyRecord
	err := r.db.WithContext(ctx).
		Preload("Checklist").
		Where("id = ?", id).
		First(&d).Error
	return &d, err
}

func (r *repository) FindAllByDriver(ctx context.Context, driverID string) ([]DutyRecord, error) {
	var rows []DutyRecord
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("duty_in_time DESC").
		Find(&rows).Error
	return rows, err
}

// CloseOpen closes exactly the targeted OPEN session and appends the end
// checklist rows in one transaction. The status predicate is the
// compare-and-swap: a concurrent close affects zero rows and writes
// nothing.
func (r *repository) CloseOpen(ctx context.Context, id string, fields map[string]any, rows []ChecklistRow) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields["status"] = StatusClosed
		res := tx.Model(&DutyRecord{}).
			Where("id = ?", id).
			Where("status = ?", StatusOpen).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return affected, err
}
