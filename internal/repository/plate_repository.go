package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PlateRepository struct {
	db *gorm.DB
}

func NewPlateRepository(db *gorm.DB) *PlateRepository {
	return &PlateRepository{db: db}
}

type MonitoredPlate struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	PlateNumber  string    `gorm:"not null" json:"plate_number"`
	Status       string    `gorm:"not null" json:"status"`
	Description  *string   `json:"description,omitempty"`
	OwnerName    *string   `json:"owner_name,omitempty"`
	VehicleModel *string   `json:"vehicle_model,omitempty"`
	VehicleColor *string   `json:"vehicle_color,omitempty"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Detection struct {
	ID               int64          `gorm:"primaryKey" json:"id"`
	PlateNumber      *string        `json:"plate_number"`
	CameraID         *int64         `json:"camera_id,omitempty"`
	ImagePath        *string        `json:"image_path,omitempty"`
	ConfidenceScore  *float64       `json:"confidence_score,omitempty"`
	Latitude         *float64       `json:"latitude,omitempty"`
	Longitude        *float64       `json:"longitude,omitempty"`
	IsMonitored      bool           `gorm:"not null;default:false" json:"is_monitored"`
	MonitoredPlateID *int64         `json:"monitored_plate_id,omitempty"`
	AlertSent        bool           `gorm:"not null;default:false" json:"alert_sent"`
	OCRMeta          datatypes.JSON `gorm:"column:ocr_meta" json:"ocr_meta,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

type Alert struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	DetectionID      int64     `json:"detection_id"`
	MonitoredPlateID int64     `json:"monitored_plate_id"`
	Channel          string    `gorm:"not null" json:"channel"`
	Recipient        *string   `json:"recipient,omitempty"`
	Message          *string   `json:"message,omitempty"`
	Status           string    `gorm:"not null;default:sent" json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

type Camera struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Location  *string   `json:"location,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// DetectionSummary is a detection joined with its camera and watch-list
// context, as shown on the dashboard.
type DetectionSummary struct {
	Detection
	CameraName   *string `json:"camera_name,omitempty"`
	PlateStatus  *string `json:"status,omitempty"`
	PlateDetails *string `json:"description,omitempty"`
}

type DashboardStats struct {
	MonitoredPlates int64 `json:"monitored_plates"`
	DetectionsToday int64 `json:"detections_today"`
	AlertsToday     int64 `json:"alerts_today"`
}

// FindActiveMonitoredPlate returns the first active watch-list entry for the
// plate number, or nil when the plate is not monitored. Lookup is
// first-match-wins when duplicate active rows exist.
func (r *PlateRepository) FindActiveMonitoredPlate(ctx context.Context, plateNumber string) (*MonitoredPlate, error) {
	var mp MonitoredPlate
	err := r.db.WithContext(ctx).
		Where("plate_number = ? AND is_active = ?", plateNumber, true).
		First(&mp).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mp, nil
}

func (r *PlateRepository) CreateDetection(ctx context.Context, detection *Detection) error {
	if detection.CreatedAt.IsZero() {
		detection.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(detection).Error
}

func (r *PlateRepository) MarkDetectionMonitored(ctx context.Context, detectionID, monitoredPlateID int64) error {
	return r.db.WithContext(ctx).
		Model(&Detection{}).
		Where("id = ?", detectionID).
		Updates(map[string]interface{}{
			"is_monitored":       true,
			"monitored_plate_id": monitoredPlateID,
		}).Error
}

func (r *PlateRepository) MarkDetectionAlerted(ctx context.Context, detectionID int64) error {
	return r.db.WithContext(ctx).
		Model(&Detection{}).
		Where("id = ?", detectionID).
		Update("alert_sent", true).Error
}

func (r *PlateRepository) CreateAlert(ctx context.Context, alert *Alert) error {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *PlateRepository) CreateMonitoredPlate(ctx context.Context, mp *MonitoredPlate) error {
	now := time.Now()
	if mp.CreatedAt.IsZero() {
		mp.CreatedAt = now
	}
	mp.UpdatedAt = now
	mp.IsActive = true
	return r.db.WithContext(ctx).Create(mp).Error
}

// DeactivateMonitoredPlate flips the active flag. Rows are never physically
// removed so detection history joins stay intact.
func (r *PlateRepository) DeactivateMonitoredPlate(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&MonitoredPlate{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PlateRepository) ListMonitoredPlates(ctx context.Context) ([]MonitoredPlate, error) {
	var plates []MonitoredPlate
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&plates).Error
	return plates, err
}

func (r *PlateRepository) ListDetections(ctx context.Context, page, limit int) ([]DetectionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if page < 1 {
		page = 1
	}

	var rows []DetectionSummary
	err := r.db.WithContext(ctx).
		Table("detections").
		Select("detections.*, cameras.name AS camera_name, monitored_plates.status AS plate_status, monitored_plates.description AS plate_details").
		Joins("LEFT JOIN cameras ON detections.camera_id = cameras.id").
		Joins("LEFT JOIN monitored_plates ON detections.monitored_plate_id = monitored_plates.id").
		Order("detections.created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(&rows).Error
	return rows, err
}

func (r *PlateRepository) RecentAlertDetections(ctx context.Context) ([]DetectionSummary, error) {
	var rows []DetectionSummary
	err := r.db.WithContext(ctx).
		Table("detections").
		Select("detections.*, monitored_plates.status AS plate_status, monitored_plates.description AS plate_details").
		Joins("JOIN monitored_plates ON detections.monitored_plate_id = monitored_plates.id").
		Where("detections.is_monitored = ?", true).
		Order("detections.created_at DESC").
		Limit(10).
		Scan(&rows).Error
	return rows, err
}

func (r *PlateRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	since := time.Now().Add(-24 * time.Hour)

	if err := r.db.WithContext(ctx).
		Model(&MonitoredPlate{}).
		Where("is_active = ?", true).
		Count(&stats.MonitoredPlates).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(&Detection{}).
		Where("created_at >= ?", since).
		Count(&stats.DetectionsToday).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(&Detection{}).
		Where("is_monitored = ? AND created_at >= ?", true, since).
		Count(&stats.AlertsToday).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *PlateRepository) ListCameras(ctx context.Context) ([]Camera, error) {
	var cameras []Camera
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&cameras).Error
	return cameras, err
}
