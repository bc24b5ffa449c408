package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"plate-watch/internal/domain/plate"
	"plate-watch/internal/repository"
	"plate-watch/internal/utils"
)

// WatchlistService covers the operator-facing surface: watch-list entries,
// detection history, dashboard stats and cameras.
type WatchlistService struct {
	repo *repository.PlateRepository
	log  zerolog.Logger
}

func NewWatchlistService(repo *repository.PlateRepository, log zerolog.Logger) *WatchlistService {
	return &WatchlistService{repo: repo, log: log}
}

func (s *WatchlistService) AddMonitoredPlate(ctx context.Context, input plate.MonitoredPlateInput) (*repository.MonitoredPlate, error) {
	normalized := utils.CleanPlateText(input.PlateNumber)
	if normalized == "" {
		return nil, fmt.Errorf("%w: plate_number is required", ErrInvalidInput)
	}
	if !input.Status.Valid() {
		return nil, fmt.Errorf("%w: status must be one of stolen, suspicious, vip, blocked", ErrInvalidInput)
	}

	mp := &repository.MonitoredPlate{
		PlateNumber: normalized,
		Status:      string(input.Status),
	}
	if input.Description != "" {
		mp.Description = &input.Description
	}
	if input.OwnerName != "" {
		mp.OwnerName = &input.OwnerName
	}
	if input.VehicleModel != "" {
		mp.VehicleModel = &input.VehicleModel
	}
	if input.VehicleColor != "" {
		mp.VehicleColor = &input.VehicleColor
	}

	if err := s.repo.CreateMonitoredPlate(ctx, mp); err != nil {
		return nil, fmt.Errorf("add monitored plate: %w", err)
	}

	s.log.Info().
		Str("plate", normalized).
		Str("status", string(input.Status)).
		Int64("monitored_plate_id", mp.ID).
		Msg("plate added to watch list")

	return mp, nil
}

// RemoveMonitoredPlate deactivates the entry; detection history keeps its
// reference to the row.
func (s *WatchlistService) RemoveMonitoredPlate(ctx context.Context, id int64) error {
	err := s.repo.DeactivateMonitoredPlate(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return fmt.Errorf("%w: monitored plate %d", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("remove monitored plate: %w", err)
	}

	s.log.Info().Int64("monitored_plate_id", id).Msg("plate removed from watch list")
	return nil
}

func (s *WatchlistService) ListMonitoredPlates(ctx context.Context) ([]repository.MonitoredPlate, error) {
	return s.repo.ListMonitoredPlates(ctx)
}

func (s *WatchlistService) ListDetections(ctx context.Context, page, limit int) ([]repository.DetectionSummary, error) {
	return s.repo.ListDetections(ctx, page, limit)
}

func (s *WatchlistService) RecentAlerts(ctx context.Context) ([]repository.DetectionSummary, error) {
	return s.repo.RecentAlertDetections(ctx)
}

func (s *WatchlistService) DashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.repo.GetDashboardStats(ctx)
}

func (s *WatchlistService) ListCameras(ctx context.Context) ([]repository.Camera, error) {
	return s.repo.ListCameras(ctx)
}
