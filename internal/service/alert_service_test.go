package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"plate-watch/internal/config"
	"plate-watch/internal/repository"
)

type fakeSender struct {
	calls      int
	recipients []string
	subject    string
	body       string
	err        error
}

func (f *fakeSender) Send(recipients []string, subject, body string) error {
	f.calls++
	f.recipients = recipients
	f.subject = subject
	f.body = body
	return f.err
}

func testAlertsConfig() config.AlertsConfig {
	return config.AlertsConfig{
		Recipients: map[string][]string{
			"stolen":     {"police@example.com", "security@example.com"},
			"suspicious": {"security@example.com"},
		},
		DefaultRecipient: "ops@example.com",
	}
}

func monitoredDetection(status string) (*repository.Detection, *repository.MonitoredPlate) {
	number := "ABC1234"
	cameraID := int64(1)
	detection := &repository.Detection{ID: 42, PlateNumber: &number, CameraID: &cameraID, IsMonitored: true}
	monitored := &repository.MonitoredPlate{ID: 7, PlateNumber: number, Status: status, IsActive: true}
	return detection, monitored
}

func alertByChannel(alerts []*repository.Alert, channel string) *repository.Alert {
	for _, a := range alerts {
		if a.Channel == channel {
			return a
		}
	}
	return nil
}

func TestDispatchRecordsEveryChannel(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	svc := NewAlertService(store, sender, testAlertsConfig(), zerolog.Nop())
	detection, monitored := monitoredDetection("stolen")

	svc.Dispatch(context.Background(), detection, monitored)

	if len(store.alerts) != 2 {
		t.Fatalf("recorded %d audit rows, want one per channel", len(store.alerts))
	}

	dashboard := alertByChannel(store.alerts, "dashboard")
	if dashboard == nil || dashboard.Status != "sent" {
		t.Errorf("dashboard row = %+v, want status sent", dashboard)
	}

	email := alertByChannel(store.alerts, "email")
	if email == nil || email.Status != "sent" {
		t.Fatalf("email row = %+v, want status sent", email)
	}
	if email.Recipient == nil || *email.Recipient != "police@example.com,security@example.com" {
		t.Errorf("email recipient = %v, want the stolen recipient set", email.Recipient)
	}
	if sender.calls != 1 {
		t.Errorf("sender invoked %d times, want 1", sender.calls)
	}
	if !strings.Contains(sender.subject, "STOLEN") || !strings.Contains(sender.subject, "ABC1234") {
		t.Errorf("subject = %q, want status and plate", sender.subject)
	}

	if len(store.markedAlerted) != 1 || store.markedAlerted[0] != 42 {
		t.Errorf("MarkDetectionAlerted calls = %v, want exactly one for detection 42", store.markedAlerted)
	}
	if !detection.AlertSent {
		t.Error("detection.AlertSent not set after dispatch")
	}
}

func TestDispatchEmailFailureIsAudited(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{err: errors.New("smtp timeout")}
	svc := NewAlertService(store, sender, testAlertsConfig(), zerolog.Nop())
	detection, monitored := monitoredDetection("suspicious")

	svc.Dispatch(context.Background(), detection, monitored)

	email := alertByChannel(store.alerts, "email")
	if email == nil || email.Status != "failed" {
		t.Fatalf("email row = %+v, want status failed", email)
	}
	dashboard := alertByChannel(store.alerts, "dashboard")
	if dashboard == nil || dashboard.Status != "sent" {
		t.Errorf("dashboard row = %+v, a failing email channel must not suppress it", dashboard)
	}
	if len(store.markedAlerted) != 1 {
		t.Errorf("MarkDetectionAlerted calls = %d, want 1 even after a channel failure", len(store.markedAlerted))
	}
}

func TestDispatchUnknownStatusUsesDefaultRecipient(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	svc := NewAlertService(store, sender, testAlertsConfig(), zerolog.Nop())
	detection, monitored := monitoredDetection("vip")

	svc.Dispatch(context.Background(), detection, monitored)

	if len(sender.recipients) != 1 || sender.recipients[0] != "ops@example.com" {
		t.Errorf("recipients = %v, want default fallback", sender.recipients)
	}
}

func TestDispatchWithoutSenderSkipsEmail(t *testing.T) {
	store := newFakeStore()
	svc := NewAlertService(store, nil, testAlertsConfig(), zerolog.Nop())
	detection, monitored := monitoredDetection("blocked")

	svc.Dispatch(context.Background(), detection, monitored)

	if len(store.alerts) != 1 || store.alerts[0].Channel != "dashboard" {
		t.Fatalf("audit rows = %+v, want the dashboard row only", store.alerts)
	}
	if !detection.AlertSent {
		t.Error("detection.AlertSent not set")
	}
}
