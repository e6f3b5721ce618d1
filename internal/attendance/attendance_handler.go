package attendance

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"fleetops/internal/driver"
	"fleetops/internal/shared/apperror"
	"fleetops/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// uploads beyond this are rejected before decoding
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

// Punch handles POST /attendance. The button field selects the
// transition: "0" (or empty) checks in, anything else is the id of the
// open record to check out.
func (h *Handler) Punch(c *gin.Context) {
	drv, ok := driver.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Driver identity missing", nil)
		return
	}

	var form PunchForm
	if err := c.ShouldBind(&form); err != nil {
		writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	file, err := c.FormFile("selfie")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Selfie image is required", nil)
		return
	}
	raw, err := readUpload(file)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if form.Button == "" || form.Button == "0" {
		resp, err := h.service.CheckIn(c.Request.Context(), drv, CheckInInput{
			Image:        raw,
			LocationName: form.LocationName,
			Latitude:     form.Latitude,
			Longitude:    form.Longitude,
		})
		if err != nil {
			writeServiceError(c, err)
			return
		}
		response.Success(c, http.StatusCreated, resp, nil)
		return
	}

	resp, err := h.service.CheckOut(c.Request.Context(), drv, CheckOutInput{
		RecordID:     form.Button,
		Image:        raw,
		LocationName: form.LocationName,
		Latitude:     form.Latitude,
		Longitude:    form.Longitude,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

// Current returns today's attendance record for the caller, open or
// closed, so the client can decide which button to show.
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

func (h *Handler) Detail(c *gin.Context) {
	drv, ok := driver.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Driver identity missing", nil)
		return
	}

	resp, err := h.service.Detail(c.Request.Context(), drv.ID, c.Param("id"))
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
