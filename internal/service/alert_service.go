package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"plate-watch/internal/config"
	"plate-watch/internal/domain/plate"
	"plate-watch/internal/repository"
)

// Sender delivers one notification to a recipient set.
type Sender interface {
	Send(recipients []string, subject, body string) error
}

// AlertService raises alerts for monitored detections. Each enabled channel
// is attempted independently and leaves exactly one audit row; a failed
// channel never stops the others. The caller invokes Dispatch at most once
// per detection.
type AlertService struct {
	store      Store
	sender     Sender // nil when email is not configured
	recipients config.AlertsConfig
	log        zerolog.Logger
}

func NewAlertService(store Store, sender Sender, recipients config.AlertsConfig, log zerolog.Logger) *AlertService {
	return &AlertService{
		store:      store,
		sender:     sender,
		recipients: recipients,
		log:        log,
	}
}

func (s *AlertService) Dispatch(ctx context.Context, detection *repository.Detection, monitored *repository.MonitoredPlate) {
	recipients := s.recipients.RecipientsFor(plate.Status(monitored.Status))
	message := formatAlertMessage(detection, monitored)

	s.log.Warn().
		Str("plate", plateNumber(detection)).
		Str("status", monitored.Status).
		Int64("detection_id", detection.ID).
		Msg("monitored plate detected, raising alert")

	s.recordAlert(ctx, detection, monitored, plate.ChannelDashboard, "system", message, plate.OutcomeSent)

	if s.sender != nil {
		s.dispatchEmail(ctx, detection, monitored, recipients)
	}

	// The flag records that dispatch ran, not that every channel
	// succeeded; channel outcomes live in the audit trail.
	if err := s.store.MarkDetectionAlerted(ctx, detection.ID); err != nil {
		s.log.Error().Err(err).Int64("detection_id", detection.ID).Msg("failed to mark detection as alerted")
		return
	}
	detection.AlertSent = true
}

func (s *AlertService) dispatchEmail(ctx context.Context, detection *repository.Detection, monitored *repository.MonitoredPlate, recipients []string) {
	subject := fmt.Sprintf("ALERT: %s - plate %s", strings.ToUpper(monitored.Status), plateNumber(detection))
	body := emailBody(detection, monitored)

	outcome := plate.OutcomeSent
	if err := s.sender.Send(recipients, subject, body); err != nil {
		outcome = plate.OutcomeFailed
		s.log.Error().Err(err).
			Int64("detection_id", detection.ID).
			Strs("recipients", recipients).
			Msg("alert email delivery failed")
	}

	s.recordAlert(ctx, detection, monitored, plate.ChannelEmail, strings.Join(recipients, ","), subject, outcome)
}

func (s *AlertService) recordAlert(ctx context.Context, detection *repository.Detection, monitored *repository.MonitoredPlate, channel plate.AlertChannel, recipient, message string, outcome plate.AlertOutcome) {
	alert := &repository.Alert{
		DetectionID:      detection.ID,
		MonitoredPlateID: monitored.ID,
		Channel:          string(channel),
		Recipient:        &recipient,
		Message:          &message,
		Status:           string(outcome),
	}
	if err := s.store.CreateAlert(ctx, alert); err != nil {
		s.log.Error().Err(err).
			Int64("detection_id", detection.ID).
			Str("channel", string(channel)).
			Msg("failed to record alert audit row")
	}
}

func formatAlertMessage(detection *repository.Detection, monitored *repository.MonitoredPlate) string {
	camera := "unknown camera"
	if detection.CameraID != nil {
		camera = fmt.Sprintf("camera %d", *detection.CameraID)
	}
	return fmt.Sprintf("ALERT: plate %s (%s) detected by %s at %s",
		plateNumber(detection), monitored.Status, camera, time.Now().Format(time.RFC3339))
}

func emailBody(detection *repository.Detection, monitored *repository.MonitoredPlate) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString("<h1>Security alert</h1>")
	fmt.Fprintf(&b, "<p><b>Plate:</b> %s</p>", plateNumber(detection))
	fmt.Fprintf(&b, "<p><b>Status:</b> %s</p>", strings.ToUpper(monitored.Status))
	if monitored.Description != nil && *monitored.Description != "" {
		fmt.Fprintf(&b, "<p><b>Notes:</b> %s</p>", *monitored.Description)
	}
	if monitored.OwnerName != nil && *monitored.OwnerName != "" {
		fmt.Fprintf(&b, "<p><b>Owner:</b> %s</p>", *monitored.OwnerName)
	}
	if monitored.VehicleModel != nil && *monitored.VehicleModel != "" {
		color := ""
		if monitored.VehicleColor != nil {
			color = " - " + *monitored.VehicleColor
		}
		fmt.Fprintf(&b, "<p><b>Vehicle:</b> %s%s</p>", *monitored.VehicleModel, color)
	}
	if detection.CameraID != nil {
		fmt.Fprintf(&b, "<p><b>Camera:</b> %d</p>", *detection.CameraID)
	}
	if detection.ConfidenceScore != nil {
		fmt.Fprintf(&b, "<p><b>Confidence:</b> %.2f%%</p>", *detection.ConfidenceScore)
	}
	fmt.Fprintf(&b, "<p><b>Time:</b> %s</p>", time.Now().Format(time.RFC1123))
	b.WriteString("</body></html>")
	return b.String()
}

func plateNumber(detection *repository.Detection) string {
	if detection.PlateNumber == nil {
		return ""
	}
	return *detection.PlateNumber
}
