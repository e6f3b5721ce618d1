package duty

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"fleetops/internal/checklist"
	"fleetops/internal/driver"
	dutyerrors "fleetops/internal/duty/errors"
	"fleetops/internal/shared/apperror"
	"fleetops/internal/shared/response"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	if file.Size > maxUploadBytes {
		return nil, apperror.New(apperror.CodeInvalidInput, "Uploaded image is too large", http.StatusBadRequest)
	}
	f, err := file.Open()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidInput, "Uploaded image could not be read", http.StatusBadRequest)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Transition handles POST /duty. button 1 starts a duty session, button 2
// ends the open one.
func (h *Handler) Transition(c *gin.Context) {
	drv, ok := driver.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Driver identity missing", nil)
		return
	}

	var form TransitionForm
	if err := c.ShouldBind(&form); err != nil {
		writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	file, err := c.FormFile("odometer_image")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Odometer image is required", nil)
		return
	}
	raw, err := readUpload(file)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	var submission checklist.Submission
	if err := json.Unmarshal([]byte(form.Checklist), &submission); err != nil {
		writeServiceError(c, dutyerrors.ErrInvalidChecklist)
		return
	}

	if form.Button == "1" {
		resp, err := h.service.StartDuty(c.Request.Context(), drv, StartDutyInput{
			Image:         raw,
			OdometerValue: form.OdometerValue,
			Checklist:     submission,
		})
		if err != nil {
			writeServiceError(c, err)
			return
		}
		response.Success(c, http.StatusCreated, resp, nil)
		return
	}

	resp, err := h.service.EndDuty(c.Request.Context(), drv, EndDutyInput{
		Image:         raw,
		OdometerValue: form.OdometerValue,
		Checklist:     submission,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Current(c *gin.Context) {
	drv, ok := driver.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Driver identity missing", nil)
		return
	}

	resp, err := h.service.Current(c.Request.Context(), drv.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) History(c *gin.Context) {
	drv, ok := driver.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Driver identity missing", nil)
		return
	}

	resp, err := h.service.History(c.Request.Context(), drv.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}

	total := int64(len(resp))
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(resp) {
		start = len(resp)
	}
	if end > len(resp) {
		end = len(resp)
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, resp[start:end], &meta)
}
