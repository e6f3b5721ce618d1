package attendance

// PunchForm is the multipart payload for POST /attendance. An empty or
// "0" button checks in; any other value is the open record id to close.
type PunchForm struct {
	Button       string  `form:"button" json:"button"`
	LocationName string  `form:"location_name" json:"location_name"`
	Latitude     float64 `form:"latitude" json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude    float64 `form:"longitude" json:"longitude" binding:"omitempty,gte=-180,lte=180"`
}

type CheckInInput struct {
	Image        []byte
	LocationName string
	Latitude     float64
	Longitude    float64
}

type CheckOutInput struct {
	RecordID     string
	Image        []byte
	LocationName string
	Latitude     float64
	Longitude    float64
}

// TransitionResponse is the client-visible outcome of a punch.
type TransitionResponse struct {
	Type    string `json:"type"` // IN or OUT
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

type AttendanceResponse struct {
	ID                   string  `json:"id"`
	DriverID             string  `json:"driver_id"`
	AttendanceDate       string  `json:"attendance_date"`
	CheckinTime          string  `json:"checkin_time"`
	CheckinImageRef      string  `json:"checkin_image_ref"`
	CheckinLocationName  string  `json:"checkin_location_name,omitempty"`
	CheckinLat           float64 `json:"checkin_lat"`
	CheckinLon           float64 `json:"checkin_lon"`
	CheckoutTime         *string `json:"checkout_time,omitempty"`
	CheckoutImageRef     *string `json:"checkout_image_ref,omitempty"`
	CheckoutLocationName *string `json:"checkout_location_name,omitempty"`
	Status               string  `json:"status"`
}
