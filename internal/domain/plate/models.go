package plate

import (
	"time"
)

// Status classifies why a plate is on the watch list.
type Status string

const (
	StatusStolen     Status = "stolen"
	StatusSuspicious Status = "suspicious"
	StatusVIP        Status = "vip"
	StatusBlocked    Status = "blocked"
)

// KnownStatuses lists every valid watch-list status.
var KnownStatuses = []Status{StatusStolen, StatusSuspicious, StatusVIP, StatusBlocked}

// Valid reports whether s is a member of the closed status enum.
func (s Status) Valid() bool {
	for _, known := range KnownStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RecognitionRequest carries one uploaded frame through the pipeline.
type RecognitionRequest struct {
	ImageBytes  []byte
	CameraID    int64
	Coordinates *Coordinates
}

// ExtractionResult is the raw output of the text extraction engine.
type ExtractionResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// MonitoredPlateInput is the operator payload for adding a watch-list entry.
type MonitoredPlateInput struct {
	PlateNumber  string `json:"plate_number"`
	Status       Status `json:"status"`
	Description  string `json:"description"`
	OwnerName    string `json:"owner_name,omitempty"`
	VehicleModel string `json:"vehicle_model,omitempty"`
	VehicleColor string `json:"vehicle_color,omitempty"`
}

// AlertChannel identifies one notification delivery path.
type AlertChannel string

const (
	ChannelDashboard AlertChannel = "dashboard"
	ChannelEmail     AlertChannel = "email"
)

// AlertOutcome records how one channel attempt ended.
type AlertOutcome string

const (
	OutcomeSent   AlertOutcome = "sent"
	OutcomeFailed AlertOutcome = "failed"
)

// Broadcast event kinds emitted to connected dashboard clients.
const (
	EventPlateAlert    = "plate_alert"
	EventPlateDetected = "plate_detected"
)

// BroadcastEvent is the envelope pushed over the realtime feed.
type BroadcastEvent struct {
	Event          string      `json:"event"`
	Detection      interface{} `json:"detection"`
	MonitoredPlate interface{} `json:"monitored_plate,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}
