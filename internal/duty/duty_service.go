package duty

import (
	"context"
	"time"

	"fleetops/internal/checklist"
	"fleetops/internal/driver"
	dutyerrors "fleetops/internal/duty/errors"
	"fleetops/internal/imaging"
	"fleetops/internal/notify"
	"fleetops/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ImageProcessor interface {
	Process(raw []byte, driverID string, watermarkLines []string) (imaging.Asset, error)
}

// Dispatcher receives the checklist report after a transition commits.
// Enqueue must not block; delivery is best-effort.
type Dispatcher interface {
	Enqueue(report notify.Report) bool
}

type Service interface {
	StartDuty(ctx context.Context, drv driver.Identity, in StartDutyInput) (TransitionResponse, error)
	EndDuty(ctx context.Context, drv driver.Identity, in EndDutyInput) (TransitionResponse, error)
	Current(ctx context.Context, driverID string) (DutyResponse, error)
	History(ctx context.Context, driverID string) ([]DutyResponse, error)
}

type service struct {
	repo       Repository
	catalog    checklist.Service
	images     ImageProcessor
	dispatcher Dispatcher
	loc        *time.Location
	logger     *zap.Logger
}

func NewService(
	repo Repository,
	catalog checklist.Service,
	images ImageProcessor,
	dispatcher Dispatcher,
	loc *time.Location,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("duty.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("duty.service")
	}
	if loc == nil {
		loc = time.Local
	}
	return &service{
		repo:       repo,
		catalog:    catalog,
		images:     images,
		dispatcher: dispatcher,
		loc:        loc,
		logger:     l,
	}
}

func (s *service) civilDate(t time.Time) time.Time {
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *service) validateSubmission(ctx context.Context, sub checklist.Submission) ([]checklist.CatalogItem, error) {
	items, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if err := checklist.Validate(items, sub); err != nil {
		return nil, err
	}
	return items, nil
}

// buildRows materializes the submission against the catalog in catalog
// order, both for persistence and for the dispatched report.
func buildRows(catalog []checklist.CatalogItem, sub checklist.Submission, phase string) ([]ChecklistRow, []notify.ReportItem) {
	rows := make([]ChecklistRow, 0, len(catalog))
	reportItems := make([]notify.ReportItem, 0, len(catalog))
	for i, item := range catalog {
		entry := sub[item.ID]
		var photoRef *string
		if entry.PhotoRef != "" {
			v := entry.PhotoRef
			photoRef = &v
		}
		rows = append(rows, ChecklistRow{
			ID:       uuid.New(),
			Phase:    phase,
			ItemID:   item.ID,
			Name:     item.Name,
			Passed:   entry.Passed,
			PhotoRef: photoRef,
			Position: i,
		})
		reportItems = append(reportItems, notify.ReportItem{Name: item.Name, Passed: entry.Passed})
	}
	return rows, reportItems
}

func odometerLines(drv driver.Identity, action string, t time.Time) []string {
	return []string{
		drv.DisplayName + " (" + drv.RegNo + ")",
		"Odometer " + action,
		t.Format("02 Jan 2006 15:04:05 MST"),
	}
}

func (s *service) StartDuty(ctx context.Context, drv driver.Identity, in StartDutyInput) (TransitionResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	if len(in.Image) == 0 {
		return TransitionResponse{}, dutyerrors.ErrMissingImage
	}
	if in.OdometerValue <= 0 {
		return TransitionResponse{}, dutyerrors.ErrMissingOdometer
	}

	catalogItems, err := s.validateSubmission(ctx, in.Checklist)
	if err != nil {
		return TransitionResponse{}, err
	}

	now := time.Now()
	asset, err := s.images.Process(in.Image, drv.ID, odometerLines(drv, ActionStart, now.In(s.loc)))
	if err != nil {
		log.Error("duty start image processing failed", zap.Error(err))
		return TransitionResponse{}, err
	}

	rows, reportItems := buildRows(catalogItems, in.Checklist, PhaseStart)
	record := &DutyRecord{
		ID:                    uuid.New(),
		DriverID:              drv.ID,
		OpenedOnDay:           s.civilDate(now),
		DutyInTime:            now,
		StartOdometerImageRef: asset.Filename,
		StartOdometerValue:    in.OdometerValue,
		Status:                StatusOpen,
	}

	if err := s.repo.CreateOpen(ctx, record, rows); err != nil {
		mapped := mapRepositoryError(err)
		if mapped == dutyerrors.ErrAlreadyOnDuty {
			log.Info("duplicate duty start rejected")
		} else {
			log.Error("duty start insert failed", zap.Error(err))
		}
		return TransitionResponse{}, mapped
	}

	log.Info("duty started",
		zap.String("duty_id", record.ID.String()),
		zap.Int64("odometer", in.OdometerValue),
	)

	// Post-commit side channel. Never awaited by this response.
	s.dispatcher.Enqueue(notify.Report{
		Driver:        drv,
		Action:        ActionStart,
		Timestamp:     now,
		OdometerValue: in.OdometerValue,
		Items:         reportItems,
	})

	return TransitionResponse{
		ID:      record.ID.String(),
		Action:  ActionStart,
		Message: "Duty started successfully",
	}, nil
}

func (s *service) EndDuty(ctx context.Context, drv driver.Identity, in EndDutyInput) (TransitionResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	if len(in.Image) == 0 {
		return TransitionResponse{}, dutyerrors.ErrMissingImage
	}
	if in.OdometerValue <= 0 {
		return TransitionResponse{}, dutyerrors.ErrMissingOdometer
	}

	catalogItems, err := s.validateSubmission(ctx, in.Checklist)
	if err != nil {
		return TransitionResponse{}, err
	}

	open, err := s.repo.FindOpenByDriver(ctx, drv.ID)
	if err != nil {
		return TransitionResponse{}, mapRepositoryError(err)
	}

	// Strict progression: equality is a regression too.
	if in.OdometerValue <= open.StartOdometerValue {
		return TransitionResponse{}, dutyerrors.OdometerRegression(open.StartOdometerValue)
	}

	now := time.Now()
	asset, err := s.images.Process(in.Image, drv.ID, odometerLines(drv, ActionEnd, now.In(s.loc)))
	if err != nil {
		log.Error("duty end image processing failed", zap.Error(err))
		return TransitionResponse{}, err
	}

	rows, reportItems := buildRows(catalogItems, in.Checklist, PhaseEnd)
	for i := range rows {
		rows[i].DutyID = open.ID
	}

	affected, err := s.repo.CloseOpen(ctx, open.ID.String(), map[string]any{
		"duty_out_time":          now,
		"end_odometer_image_ref": asset.Filename,
		"end_odometer_value":     in.OdometerValue,
	}, rows)
	if err != nil {
		log.Error("duty end update failed", zap.Error(err))
		return TransitionResponse{}, mapRepositoryError(err)
	}
	if affected == 0 {
		log.Info("duty end rejected, session already closed", zap.String("duty_id", open.ID.String()))
		return TransitionResponse{}, dutyerrors.ErrNoActiveDuty
	}

	log.Info("duty ended",
		zap.String("duty_id", open.ID.String()),
		zap.Int64("odometer", in.OdometerValue),
	)

	s.dispatcher.Enqueue(notify.Report{
		Driver:        drv,
		Action:        ActionEnd,
		Timestamp:     now,
		OdometerValue: in.OdometerValue,
		Items:         reportItems,
	})

	return TransitionResponse{
		ID:      open.ID.String(),
		Action:  ActionEnd,
		Message: "Duty ended successfully",
	}, nil
}

func (s *service) Current(ctx context.Context, driverID string) (DutyResponse, error) {
	open, err := s.repo.FindOpenByDriver(ctx, driverID)
	if err != nil {
		return DutyResponse{}, mapRepositoryError(err)
	}
	full, err := s.repo.FindByID(ctx, open.ID.String())
	if err != nil {
		return DutyResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*full), nil
}

func (s *service) History(ctx context.Context, driverID string) ([]DutyResponse, error) {
	rows, err := s.repo.FindAllByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	res := make([]DutyResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

func mapToResponse(d DutyRecord) DutyResponse {
	resp := DutyResponse{
		ID:                    d.ID.String(),
		DriverID:              d.DriverID,
		OpenedOnDay:           d.OpenedOnDay.Format("2006-01-02"),
		DutyInTime:            d.DutyInTime.Format(time.RFC3339),
		StartOdometerImageRef: d.StartOdometerImageRef,
		StartOdometerValue:    d.StartOdometerValue,
		EndOdometerImageRef:   d.EndOdometerImageRef,
		EndOdometerValue:      d.EndOdometerValue,
		Status:                d.Status,
	}
	if d.DutyOutTime != nil {
		v := d.DutyOutTime.Format(time.RFC3339)
		resp.DutyOutTime = &v
	}
	for _, row := range d.Checklist {
		resp.Checklist = append(resp.Checklist, ChecklistRowResponse{
			ItemID:   row.ItemID,
			Name:     row.Name,
			Phase:    row.Phase,
			Passed:   row.Passed,
			PhotoRef: row.PhotoRef,
		})
	}
	return resp
}
