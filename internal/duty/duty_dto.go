package duty

import "fleetops/internal/checklist"

// TransitionForm is the multipart payload for POST /duty; the checklist
// field carries the submission as a JSON object string.
type TransitionForm struct {
	Button        string `form:"button" json:"button" binding:"required,oneof=1 2"`
	OdometerValue int64  `form:"odometer_value" json:"odometer_value" binding:"required,gt=0"`
	Checklist     string `form:"checklist" json:"checklist" binding:"required"`
}

type StartDutyInput struct {
	Image         []byte
	OdometerValue int64
	Checklist     checklist.Submission
}

type EndDutyInput struct {
	Image         []byte
	OdometerValue int64
	Checklist     checklist.Submission
}

type TransitionResponse struct {
	ID      string `json:"id"`
	Action  string `json:"action"` // START or END
	Message string `json:"message"`
}

type ChecklistRowResponse struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Phase    string  `json:"phase"`
	Passed   bool    `json:"passed"`
	PhotoRef *string `json:"photo_ref,omitempty"`
}

type DutyResponse struct {
	ID                    string                 `json:"id"`
	DriverID              string                 `json:"driver_id"`
	OpenedOnDay           string                 `json:"opened_on_day"`
	DutyInTime            string                 `json:"duty_in_time"`
	StartOdometerImageRef string                 `json:"start_odometer_image_ref"`
	StartOdometerValue    int64                  `json:"start_odometer_value"`
	DutyOutTime           *string                `json:"duty_out_time,omitempty"`
	EndOdometerImageRef   *string                `json:"end_odometer_image_ref,omitempty"`
	EndOdometerValue      *int64                 `json:"end_odometer_value,omitempty"`
	Status                string                 `json:"status"`
	Checklist             []ChecklistRowResponse `json:"checklist,omitempty"`
}
