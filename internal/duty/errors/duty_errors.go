package dutyerrors

import (
	"fmt"
	"net/http"

	"fleetops/internal/shared/apperror"
)

var (
	ErrAlreadyOnDuty = apperror.New(
		apperror.CodeConflict,
		"You already have an open duty session today",
		http.StatusConflict,
	)
	ErrNoActiveDuty = apperror.New(
		apperror.CodeConflict,
		"No active duty session to end",
		http.StatusConflict,
	)
	ErrMissingImage = apperror.New(
		apperror.CodeInvalidInput,
		"An odometer image is required",
		http.StatusBadRequest,
	)
	ErrMissingOdometer = apperror.New(
		apperror.CodeInvalidInput,
		"An odometer reading is required",
		http.StatusBadRequest,
	)
	ErrInvalidChecklist = apperror.New(
		apperror.CodeInvalidInput,
		"Checklist submission could not be parsed",
		http.StatusBadRequest,
	)
)

// OdometerRegression carries the offending start value so the driver can
// correct the reading.
func OdometerRegression(startValue int64) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidState,
		fmt.Sprintf("End odometer must be higher than start (%d)", startValue),
		http.StatusBadRequest,
	)
}
