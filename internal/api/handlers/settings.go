package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emirhncann/portable-thermal-printer/internal/config"
	"github.com/emirhncann/portable-thermal-printer/internal/core"
	"github.com/emirhncann/portable-thermal-printer/internal/db"
)

const (
	settingsKeyPrintDefaults = "default_print_settings"
	settingsKeyRetentionDays = "history_retention_days"
)

const defaultRetentionDays = 90

type SettingsHandler struct {
	config *config.Config
}

type ServerConfigResponse struct {
	Port              int    `json:"port"`
	DatabasePath      string `json:"database_path"`
	PrinterName       string `json:"printer_name"`
	PrinterKind       string `json:"printer_kind"`
	PrinterAddress    string `json:"printer_address"`
	ConnectionTimeout string `json:"connection_timeout"`
	SettleDelay       string `json:"settle_delay"`
	Supersample       int    `json:"supersample"`
	LogLevel          string `json:"log_level"`
	LogFormat         string `json:"log_format"`
}

type UpdateRetentionRequest struct {
	RetentionDays int `json:"retention_days" binding:"required,min=1"`
}

func NewSettingsHandler(cfg *config.Config) *SettingsHandler {
	return &SettingsHandler{config: cfg}
}

// defaultPrintSettings returns the persisted submission defaults, falling
// back to the built-in ones when nothing has been stored yet.
func defaultPrintSettings(ctx context.Context) core.PrintSettings {
	settings := core.DefaultSettings()
	stored, err := db.Settings.GetSetting(ctx, settingsKeyPrintDefaults)
	if err != nil {
		return settings
	}
	if err := json.Unmarshal([]byte(stored.Value), &settings); err != nil {
		return core.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return core.DefaultSettings()
	}
	return settings
}

func retentionDays(ctx context.Context) int {
	if setting, err := db.Settings.GetSetting(ctx, settingsKeyRetentionDays); err == nil {
		if days, err := strconv.Atoi(setting.Value); err == nil && days > 0 {
			return days
		}
	}
	return defaultRetentionDays
}

func (h *SettingsHandler) GetPrintDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, defaultPrintSettings(c.Request.Context()))
}

func (h *SettingsHandler) UpdatePrintDefaults(c *gin.Context) {
	var settings core.PrintSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}
	if err := settings.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	data, err := json.Marshal(settings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "json_error",
			Message: "Failed to serialize settings",
		})
		return
	}

	if err := db.Settings.SetSetting(c.Request.Context(), settingsKeyPrintDefaults, string(data)); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to store settings",
		})
		return
	}

	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) GetRetention(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"retention_days": retentionDays(c.Request.Context()),
	})
}

// UpdateRetention stores the retention window and prunes history older than
// it right away.
func (h *SettingsHandler) UpdateRetention(c *gin.Context) {
	var req UpdateRetentionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	if err := db.Settings.SetSetting(ctx, settingsKeyRetentionDays, strconv.Itoa(req.RetentionDays)); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to update retention",
		})
		return
	}

	pruned, err := db.Jobs.PruneOlderThan(ctx, req.RetentionDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to prune old history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"retention_days": req.RetentionDays,
		"pruned":         pruned,
	})
}

func (h *SettingsHandler) GetServerConfig(c *gin.Context) {
	resp := ServerConfigResponse{
		Port:              h.config.Server.Port,
		DatabasePath:      h.config.Database.Path,
		PrinterName:       h.config.Printer.Name,
		PrinterKind:       h.config.Printer.Kind,
		PrinterAddress:    h.config.Printer.Address,
		ConnectionTimeout: h.config.Printer.ConnectionTimeout.String(),
		SettleDelay:       h.config.Pipeline.SettleDelay.String(),
		Supersample:       h.config.Pipeline.Supersample,
		LogLevel:          h.config.Logging.Level,
		LogFormat:         h.config.Logging.Format,
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SettingsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/settings/print-defaults", h.GetPrintDefaults)
	r.PUT("/settings/print-defaults", h.UpdatePrintDefaults)
	r.GET("/settings/retention", h.GetRetention)
	r.PUT("/settings/retention", h.UpdateRetention)
	r.GET("/settings/server", h.GetServerConfig)
}
