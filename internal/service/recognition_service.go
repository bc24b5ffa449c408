package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"plate-watch/internal/domain/plate"
	"plate-watch/internal/repository"
	"plate-watch/internal/utils"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrPersistence  = errors.New("persistence failure")
)

// Store is the persistence surface the recognition pipeline consumes.
type Store interface {
	CreateDetection(ctx context.Context, detection *repository.Detection) error
	FindActiveMonitoredPlate(ctx context.Context, plateNumber string) (*repository.MonitoredPlate, error)
	MarkDetectionMonitored(ctx context.Context, detectionID, monitoredPlateID int64) error
	MarkDetectionAlerted(ctx context.Context, detectionID int64) error
	CreateAlert(ctx context.Context, alert *repository.Alert) error
}

// Recognizer produces raw text and a confidence score from an image.
type Recognizer interface {
	Recognize(ctx context.Context, imageBytes []byte) (plate.ExtractionResult, error)
}

// Normalizer prepares an image for text extraction, best-effort.
type Normalizer interface {
	Normalize(imageBytes []byte) []byte
}

// Broadcaster pushes realtime events to connected dashboard clients.
type Broadcaster interface {
	BroadcastAlert(detection, monitoredPlate interface{})
	BroadcastDetection(detection interface{})
}

// Dispatcher raises the alert for a monitored detection.
type Dispatcher interface {
	Dispatch(ctx context.Context, detection *repository.Detection, monitoredPlate *repository.MonitoredPlate)
}

// PipelineResult is what the recognition entry point hands back to the
// HTTP layer. Plate is nil when no usable plate was resolved.
type PipelineResult struct {
	Plate          *string                    `json:"plate"`
	Confidence     float64                    `json:"confidence"`
	Alert          bool                       `json:"alert"`
	Detection      *repository.Detection      `json:"detection"`
	MonitoredPlate *repository.MonitoredPlate `json:"monitored_plate,omitempty"`
}

type RecognitionService struct {
	normalizer Normalizer
	engine     Recognizer
	store      Store
	hub        Broadcaster
	dispatcher Dispatcher
	log        zerolog.Logger
}

func NewRecognitionService(
	normalizer Normalizer,
	engine Recognizer,
	store Store,
	hub Broadcaster,
	dispatcher Dispatcher,
	log zerolog.Logger,
) *RecognitionService {
	return &RecognitionService{
		normalizer: normalizer,
		engine:     engine,
		store:      store,
		hub:        hub,
		dispatcher: dispatcher,
		log:        log,
	}
}

type ocrMeta struct {
	RawText      string `json:"raw_text"`
	CleanedText  string `json:"cleaned_text"`
	GrammarMatch bool   `json:"grammar_match"`
}

// ProcessImage runs the full pipeline for one uploaded frame: normalize,
// extract text, resolve the plate, record the detection, match against the
// watch list and, on a hit, raise the alert.
func (s *RecognitionService) ProcessImage(ctx context.Context, req plate.RecognitionRequest, imagePath string) (*PipelineResult, error) {
	if len(req.ImageBytes) == 0 {
		return nil, fmt.Errorf("%w: image is required", ErrInvalidInput)
	}

	normalized := s.normalizer.Normalize(req.ImageBytes)

	extraction, err := s.engine.Recognize(ctx, normalized)
	if err != nil {
		return nil, err
	}

	resolved := utils.ResolvePlate(extraction.Text)
	validated := resolved != "" && utils.ValidPlate(resolved)

	s.log.Info().
		Str("raw_text", extraction.Text).
		Str("plate", resolved).
		Bool("grammar_match", validated).
		Float64("confidence", extraction.Confidence).
		Msg("plate text resolved")

	detection := &repository.Detection{
		CameraID:        &req.CameraID,
		ConfidenceScore: &extraction.Confidence,
	}
	if imagePath != "" {
		detection.ImagePath = &imagePath
	}
	if resolved != "" {
		detection.PlateNumber = &resolved
	}
	if req.Coordinates != nil {
		detection.Latitude = &req.Coordinates.Latitude
		detection.Longitude = &req.Coordinates.Longitude
	}
	if meta, err := json.Marshal(ocrMeta{
		RawText:      extraction.Text,
		CleanedText:  utils.CleanPlateText(extraction.Text),
		GrammarMatch: validated,
	}); err == nil {
		detection.OCRMeta = datatypes.JSON(meta)
	}

	// Every extraction attempt is recorded, even when no plate resolved.
	// Without a detection row the request cannot proceed.
	if err := s.store.CreateDetection(ctx, detection); err != nil {
		s.log.Error().Err(err).Msg("failed to record detection")
		return nil, fmt.Errorf("%w: record detection: %v", ErrPersistence, err)
	}

	result := &PipelineResult{
		Confidence: extraction.Confidence,
		Detection:  detection,
	}
	if resolved == "" {
		return result, nil
	}
	result.Plate = &resolved

	monitored := s.matchWatchList(ctx, resolved, detection)
	if monitored == nil {
		s.hub.BroadcastDetection(detection)
		return result, nil
	}

	result.Alert = true
	result.MonitoredPlate = monitored

	// The realtime feed goes out first so a slow notification channel
	// cannot delay connected clients.
	s.hub.BroadcastAlert(detection, monitored)
	s.dispatcher.Dispatch(ctx, detection, monitored)

	return result, nil
}

// matchWatchList looks the plate up and flags the detection on a hit. A
// failing lookup is treated as not monitored: a watch-list outage must not
// block detection reporting.
func (s *RecognitionService) matchWatchList(ctx context.Context, plateNumber string, detection *repository.Detection) *repository.MonitoredPlate {
	monitored, err := s.store.FindActiveMonitoredPlate(ctx, plateNumber)
	if err != nil {
		s.log.Error().Err(err).Str("plate", plateNumber).Msg("watch-list lookup failed, treating as not monitored")
		return nil
	}
	if monitored == nil {
		return nil
	}

	if err := s.store.MarkDetectionMonitored(ctx, detection.ID, monitored.ID); err != nil {
		s.log.Error().Err(err).Int64("detection_id", detection.ID).Msg("failed to flag detection as monitored")
	}
	detection.IsMonitored = true
	detection.MonitoredPlateID = &monitored.ID

	s.log.Info().
		Str("plate", plateNumber).
		Str("status", monitored.Status).
		Int64("detection_id", detection.ID).
		Int64("monitored_plate_id", monitored.ID).
		Msg("plate found on watch list")

	return monitored
}
