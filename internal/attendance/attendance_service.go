package attendance

import (
	"context"
	"time"

	attendanceerrors "fleetops/internal/attendance/errors"
	"fleetops/internal/driver"
	"fleetops/internal/imaging"
	"fleetops/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageProcessor is the slice of the image pipeline this store needs:
// raw bytes in, durable evidence asset out.
type ImageProcessor interface {
	Process(raw []byte, driverID string, watermarkLines []string) (imaging.Asset, error)
}

type Service interface {
	CheckIn(ctx context.Context, drv driver.Identity, in CheckInInput) (TransitionResponse, error)
	CheckOut(ctx context.Context, drv driver.Identity, in CheckOutInput) (TransitionResponse, error)
	Current(ctx context.Context, driverID string) (AttendanceResponse, error)
	Detail(ctx context.Context, driverID, id string) (AttendanceResponse, error)
	History(ctx context.Context, driverID string) ([]AttendanceResponse, error)
}

type service struct {
	repo   Repository
	images ImageProcessor
	loc    *time.Location
	logger *zap.Logger
}

func NewService(repo Repository, images ImageProcessor, loc *time.Location, logger ...*zap.Logger) Service {
	l := zap.L().Named("attendance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.service")
	}
	if loc == nil {
		loc = time.Local
	}
	return &service{repo: repo, images: images, loc: loc, logger: l}
}

// civilDate truncates t to the driver-local calendar day, normalized to
// UTC midnight for the date column.
func (s *service) civilDate(t time.Time) time.Time {
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func watermarkLines(drv driver.Identity, locationName string, t time.Time) []string {
	return []string{
		drv.DisplayName + " (" + drv.RegNo + ")",
		locationName,
		t.Format("02 Jan 2006 15:04:05 MST"),
	}
}

func (s *service) CheckIn(ctx context.Context, drv driver.Identity, in CheckInInput) (TransitionResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	if len(in.Image) == 0 {
		return TransitionResponse{}, attendanceerrors.ErrMissingImage
	}

	now := time.Now()
	asset, err := s.images.Process(in.Image, drv.ID, watermarkLines(drv, in.LocationName, now.In(s.loc)))
	if err != nil {
		log.Error("check-in image processing failed", zap.Error(err))
		return TransitionResponse{}, err
	}

	row := &Attendance{
		ID:                  uuid.New(),
		DriverID:            drv.ID,
		AttendanceDate:      s.civilDate(now),
		CheckinTime:         now,
		CheckinImageRef:     asset.Filename,
		CheckinLocationName: in.LocationName,
		CheckinLat:          in.Latitude,
		CheckinLon:          in.Longitude,
		Status:              StatusOpen,
	}

	if err := s.repo.CreateOpen(ctx, row); err != nil {
		mapped := mapRepositoryError(err)
		if mapped == attendanceerrors.ErrAlreadyCheckedInToday {
			log.Info("duplicate check-in rejected")
		} else {
			log.Error("check-in insert failed", zap.Error(err))
		}
		return TransitionResponse{}, mapped
	}

	log.Info("driver checked in",
		zap.String("attendance_id", row.ID.String()),
		zap.String("image_ref", asset.Filename),
	)

	return TransitionResponse{
		Type:    "IN",
		ID:      row.ID.String(),
		Message: "Checked in successfully",
	}, nil
}

func (s *service) CheckOut(ctx context.Context, drv driver.Identity, in CheckOutInput) (TransitionResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	if len(in.Image) == 0 {
		return TransitionResponse{}, attendanceerrors.ErrMissingImage
	}
	if _, err := uuid.Parse(in.RecordID); err != nil {
		return TransitionResponse{}, attendanceerrors.ErrInvalidRecordID
	}

	now := time.Now()
	asset, err := s.images.Process(in.Image, drv.ID, watermarkLines(drv, in.LocationName, now.In(s.loc)))
	if err != nil {
		log.Error("check-out image processing failed", zap.Error(err))
		return TransitionResponse{}, err
	}

	affected, err := s.repo.CloseOpen(ctx, in.RecordID, drv.ID, map[string]any{
		"checkout_time":          now,
		"checkout_image_ref":     asset.Filename,
		"checkout_location_name": in.LocationName,
	})
	if err != nil {
		log.Error("check-out update failed", zap.Error(err))
		return TransitionResponse{}, mapRepositoryError(err)
	}
	if affected == 0 {
		log.Info("check-out rejected, no open record", zap.String("attendance_id", in.RecordID))
		return TransitionResponse{}, attendanceerrors.ErrNoOpenRecord
	}

	log.Info("driver checked out", zap.String("attendance_id", in.RecordID))

	return TransitionResponse{
		Type:    "OUT",
		ID:      in.RecordID,
		Message: "Checked out successfully",
	}, nil
}

// Current looks up today's record by the driver-local civil date.
func (s *service) Current(ctx context.Context, driverID string) (AttendanceResponse, error) {
	row, err := s.repo.FindByDriverAndDate(ctx, driverID, s.civilDate(time.Now()))
	if err != nil {
		return AttendanceResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*row), nil
}

func (s *service) Detail(ctx context.Context, driverID, id string) (AttendanceResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidRecordID
	}
	row, err := s.repo.FindByID(ctx, id, driverID)
	if err != nil {
		return AttendanceResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*row), nil
}

func (s *service) History(ctx context.Context, driverID string) ([]AttendanceResponse, error) {
	rows, err := s.repo.FindAllByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	res := make([]AttendanceResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

func mapToResponse(a Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:                   a.ID.String(),
		DriverID:             a.DriverID,
		AttendanceDate:       a.AttendanceDate.Format("2006-01-02"),
		CheckinTime:          a.CheckinTime.Format(time.RFC3339),
		CheckinImageRef:      a.CheckinImageRef,
		CheckinLocationName:  a.CheckinLocationName,
		CheckinLat:           a.CheckinLat,
		CheckinLon:           a.CheckinLon,
		CheckoutImageRef:     a.CheckoutImageRef,
		CheckoutLocationName: a.CheckoutLocationName,
		Status:               a.Status,
	}
	if a.CheckoutTime != nil {
		v := a.CheckoutTime.Format(time.RFC3339)
		resp.CheckoutTime = &v
	}
	return resp
}
