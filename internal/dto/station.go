package dto

// StationTokenRequest asks for a scan-station token bound to one event
type StationTokenRequest struct {
	StationID string `json:"station_id" binding:"required"`
	EventID   string `json:"event_id" binding:"required"`
}

// StationTokenResponse carries the minted station token
type StationTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}
