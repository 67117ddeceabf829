package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emirhncann/portable-thermal-printer/internal/config"
	"github.com/emirhncann/portable-thermal-printer/internal/transport"
	"github.com/emirhncann/portable-thermal-printer/internal/tspl"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type PrinterResponse struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	Address        string `json:"address"`
	BlackMark      bool   `json:"black_mark"`
	ExtendedBitmap bool   `json:"extended_bitmap"`
}

type PrinterHealthResponse struct {
	Reachable   bool      `json:"reachable"`
	Error       string    `json:"error,omitempty"`
	LatencyMS   int64     `json:"latency_ms"`
	LastChecked time.Time `json:"last_checked"`
}

// PrinterHandler exposes the single configured printer. Health probes dial a
// fresh connection rather than touching the job worker's transport.
type PrinterHandler struct {
	cfg  config.PrinterConfig
	caps tspl.Capabilities
}

func NewPrinterHandler(cfg config.PrinterConfig, caps tspl.Capabilities) *PrinterHandler {
	return &PrinterHandler{cfg: cfg, caps: caps}
}

func (h *PrinterHandler) GetPrinter(c *gin.Context) {
	c.JSON(http.StatusOK, PrinterResponse{
		Name:           h.cfg.Name,
		Kind:           h.cfg.Kind,
		Address:        h.cfg.Address,
		BlackMark:      h.caps.BlackMark,
		ExtendedBitmap: h.caps.ExtendedBitmap,
	})
}

// GetHealth opens a short-lived connection to the printer. A busy printer
// may refuse the probe while a job is transmitting; that reports as
// unreachable, which is accurate enough for a liveness check.
func (h *PrinterHandler) GetHealth(c *gin.Context) {
	resp := PrinterHealthResponse{LastChecked: time.Now()}

	probe, err := transport.New(h.cfg)
	if err != nil {
		resp.Error = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}

	start := time.Now()
	if err := probe.Open(); err != nil {
		resp.Error = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	probe.Close()

	resp.Reachable = true
	resp.LatencyMS = time.Since(start).Milliseconds()
	c.JSON(http.StatusOK, resp)
}

func (h *PrinterHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/printer", h.GetPrinter)
	r.GET("/printer/health", h.GetHealth)
}
