package dto

// LoginRequest is the body of login and register
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ProfileRequest is the body of a profile update
type ProfileRequest struct {
	Username        string `json:"username"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AdjustmentRequest sets the quantity of the adjust dialog and may submit it
type AdjustmentRequest struct {
	Quantity int `json:"quantity"`
}

// ThresholdsRequest is the body of a thresholds save
type ThresholdsRequest struct {
	LowStockThreshold    int `json:"lowStockThreshold"`
	MediumStockThreshold int `json:"mediumStockThreshold"`
}

// DraftResponse answers a draft change with the resulting field errors
type DraftResponse struct {
	Dialog any `json:"dialog"`
	Errors any `json:"errors,omitempty"`
}

// ExportDelivery is returned when an export is delivered to storage instead of downloaded
type ExportDelivery struct {
	FileName string `json:"fileName"`
	Rows     int    `json:"rows"`
	Key      string `json:"key"`
	Location string `json:"location"`
	URL      string `json:"url,omitempty"`
	Size     int64  `json:"size"`
}
