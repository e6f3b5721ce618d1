package attendanceerrors

import (
	"net/http"

	"fleetops/internal/shared/apperror"
)

var (
	ErrAlreadyCheckedInToday = apperror.New(
		apperror.CodeConflict,
		"You have already checked in today",
		http.StatusConflict,
	)
	ErrNoOpenRecord = apperror.New(
		apperror.CodeConflict,
		"No open attendance record to check out",
		http.StatusConflict,
	)
	ErrMissingImage = apperror.New(
		apperror.CodeInvalidInput,
		"A selfie image is required",
		http.StatusBadRequest,
	)
	ErrRecordNotFound = apperror.New(
		apperror.CodeNotFound,
		"Attendance record not found",
		http.StatusNotFound,
	)
	ErrInvalidRecordID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid attendance record ID",
		http.StatusBadRequest,
	)
)
