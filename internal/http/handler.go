package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"plate-watch/internal/config"
	"plate-watch/internal/domain/plate"
	"plate-watch/internal/ocr"
	"plate-watch/internal/service"
	"plate-watch/internal/storage"
	"plate-watch/internal/ws"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	recognition *service.RecognitionService
	watchlist   *service.WatchlistService
	auth        *service.AuthService
	hub         *ws.Hub
	images      *storage.LocalStore
	config      *config.Config
	log         zerolog.Logger
}

func NewHandler(
	recognition *service.RecognitionService,
	watchlist *service.WatchlistService,
	auth *service.AuthService,
	hub *ws.Hub,
	images *storage.LocalStore,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		recognition: recognition,
		watchlist:   watchlist,
		auth:        auth,
		hub:         hub,
		images:      images,
		config:      cfg,
		log:         log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	public := r.Group("/api/v1")
	{
		public.POST("/recognize", h.recognize)
		public.GET("/detections", h.listDetections)
		public.GET("/monitored-plates", h.listMonitoredPlates)
		public.GET("/dashboard/stats", h.dashboardStats)
		public.GET("/alerts/recent", h.recentAlerts)
		public.GET("/cameras", h.listCameras)
		public.GET("/ws", h.serveWebsocket)
		public.POST("/auth/login", h.login)
	}

	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/monitored-plates", h.addMonitoredPlate)
		protected.DELETE("/monitored-plates/:id", h.removeMonitoredPlate)
	}
}

func (h *Handler) recognize(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("image file is required"))
		return
	}
	defer file.Close()

	maxBytes := h.config.Uploads.MaxSizeMB * 1024 * 1024
	imageBytes, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("failed to read image"))
		return
	}
	if int64(len(imageBytes)) > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse("image exceeds upload size limit"))
		return
	}
	if !isImage(imageBytes) {
		c.JSON(http.StatusBadRequest, errorResponse("only image files are accepted"))
		return
	}

	cameraID := h.config.Camera.DefaultID
	if v := c.PostForm("camera_id"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			cameraID = parsed
		}
	}

	var coords *plate.Coordinates
	if latStr, lonStr := c.PostForm("latitude"), c.PostForm("longitude"); latStr != "" && lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr == nil && lonErr == nil {
			coords = &plate.Coordinates{Latitude: lat, Longitude: lon}
		}
	}

	imagePath, err := h.images.SaveImage(imageBytes, header.Filename)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to store uploaded image")
		c.JSON(http.StatusInternalServerError, errorResponse("failed to store image"))
		return
	}

	result, err := h.recognition.ProcessImage(c.Request.Context(), plate.RecognitionRequest{
		ImageBytes:  imageBytes,
		CameraID:    cameraID,
		Coordinates: coords,
	}, imagePath)
	if err != nil {
		switch {
		case errors.Is(err, ocr.ErrEngineUnavailable):
			c.JSON(http.StatusServiceUnavailable, errorResponse("recognition temporarily unavailable"))
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		default:
			h.log.Error().Err(err).Msg("recognition pipeline failed")
			c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) listDetections(c *gin.Context) {
	page := 1
	if v := c.Query("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			page = parsed
		}
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	detections, err := h.watchlist.ListDetections(c.Request.Context(), page, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list detections")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}
	c.JSON(http.StatusOK, successResponse(detections))
}

func (h *Handler) listMonitoredPlates(c *gin.Context) {
	plates, err := h.watchlist.ListMonitoredPlates(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list monitored plates")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}
	c.JSON(http.StatusOK, successResponse(plates))
}

func (h *Handler) addMonitoredPlate(c *gin.Context) {
	var input plate.MonitoredPlateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	mp, err := h.watchlist.AddMonitoredPlate(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(mp))
}

func (h *Handler) removeMonitoredPlate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid id"))
		return
	}

	if err := h.watchlist.RemoveMonitoredPlate(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) dashboardStats(c *gin.Context) {
	stats, err := h.watchlist.DashboardStats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to compute dashboard stats")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) recentAlerts(c *gin.Context) {
	alerts, err := h.watchlist.RecentAlerts(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list recent alerts")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}
	c.JSON(http.StatusOK, successResponse(alerts))
}

func (h *Handler) listCameras(c *gin.Context) {
	cameras, err := h.watchlist.ListCameras(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list cameras")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}
	c.JSON(http.StatusOK, successResponse(cameras))
}

func (h *Handler) serveWebsocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	h.hub.Register(conn)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, errorResponse("invalid credentials"))
			return
		}
		h.log.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func isImage(data []byte) bool {
	contentType := http.DetectContentType(data)
	return len(contentType) > 6 && contentType[:6] == "image/"
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
