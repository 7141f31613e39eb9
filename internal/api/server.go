package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jameshorton2486/kollect-it-sub006/internal/audit"
	"github.com/jameshorton2486/kollect-it-sub006/internal/auth"
	"github.com/jameshorton2486/kollect-it-sub006/internal/catalog"
	"github.com/jameshorton2486/kollect-it-sub006/internal/claim"
	"github.com/jameshorton2486/kollect-it-sub006/internal/database"
	"github.com/jameshorton2486/kollect-it-sub006/internal/models"
	"github.com/jameshorton2486/kollect-it-sub006/internal/scheduler"

	"github.com/gin-gonic/gin"
)

type Server struct {
	driver    *scheduler.Driver
	catalog   catalog.Store
	audit     audit.Store
	gate      *TriggerGate
	jwtSecret string
	router    *gin.Engine
}

func NewServer(driver *scheduler.Driver, catalogStore catalog.Store, auditStore audit.Store, gate *TriggerGate, jwtSecret string) *Server {
	server := &Server{
		driver:    driver,
		catalog:   catalogStore,
		audit:     auditStore,
		gate:      gate,
		jwtSecret: jwtSecret,
		router:    gin.Default(),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	// Public routes
	s.router.POST("/api/v1/auth/login", s.login)

	// External trigger: pre-shared key gate, never session auth. The hosted
	// cron calls this; it shares RunOnce with the local tick loop.
	s.router.POST("/api/v1/scheduler/trigger", s.gate.Middleware(), s.trigger)

	// Protected routes (require authentication)
	api := s.router.Group("/api/v1")
	api.Use(auth.AuthMiddleware(s.jwtSecret))

	api.GET("/scheduler/health", s.schedulerHealth)

	reports := api.Group("/reports")
	{
		reports.GET("", s.listReports)
		reports.GET("/:id", s.getReport)
		reports.GET("/:id/audit", s.reportAudit)
		reports.PUT("/:id/enable", auth.RequireRole(models.RoleAdmin), s.enableReport)
		reports.PUT("/:id/disable", auth.RequireRole(models.RoleAdmin), s.disableReport)
		reports.POST("/:id/trigger", auth.RequireRole(models.RoleAdmin), s.triggerReport)
	}
}

func (s *Server) Start(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// trigger runs one due-report pass. Gate rejections never reach here.
// Individual report failures surface through the audit log, not through the
// transport response; only a failed batch evaluation is a server error.
func (s *Server) trigger(c *gin.Context) {
	if _, err := io.Copy(io.Discard, c.Request.Body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
		return
	}

	result, err := s.driver.RunOnce(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "batch evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) schedulerHealth(c *gin.Context) {
	counts, err := s.audit.CountSince(c.Request.Context(), time.Now().Add(-24*time.Hour))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	total := counts[models.AuditStatusSuccess] + counts[models.AuditStatusPartialFailure] + counts[models.AuditStatusFailure]
	successRate := 0.0
	if total > 0 {
		successRate = float64(counts[models.AuditStatusSuccess]) / float64(total) * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"loop_running":     s.driver.Running(),
		"runs_24h":         total,
		"success_24h":      counts[models.AuditStatusSuccess],
		"partial_24h":      counts[models.AuditStatusPartialFailure],
		"failure_24h":      counts[models.AuditStatusFailure],
		"success_rate_pct": successRate,
	})
}

func (s *Server) listReports(c *gin.Context) {
	reports, err := s.catalog.ListEnabled(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (s *Server) getReport(c *gin.Context) {
	report, ok := s.lookupReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) reportAudit(c *gin.Context) {
	report, ok := s.lookupReport(c)
	if !ok {
		return
	}

	limit := audit.MaxPageSize
	if raw := c.Query("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil {
			limit = l
		}
	}

	entries, err := s.audit.Recent(c.Request.Context(), report.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) enableReport(c *gin.Context) {
	s.setReportEnabled(c, true)
}

func (s *Server) disableReport(c *gin.Context) {
	s.setReportEnabled(c, false)
}

func (s *Server) setReportEnabled(c *gin.Context, enabled bool) {
	report, ok := s.lookupReport(c)
	if !ok {
		return
	}

	if err := s.catalog.SetEnabled(c.Request.Context(), report.ID, enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusOK)
}

// triggerReport runs a single report immediately through the same claim and
// execute path as a scheduled pass.
func (s *Server) triggerReport(c *gin.Context) {
	report, ok := s.lookupReport(c)
	if !ok {
		return
	}

	outcome, err := s.driver.RunReport(c.Request.Context(), report)
	if err != nil {
		if errors.Is(err, claim.ErrAlreadyClaimed) {
			c.JSON(http.StatusConflict, gin.H{"error": "report is currently executing"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": outcome.Status, "recipients": outcome.Recipients})
}

func (s *Server) lookupReport(c *gin.Context) (*models.ReportSchedule, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return nil, false
	}

	report, err := s.catalog.Get(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return report, true
}

func (s *Server) login(c *gin.Context) {
	var loginReq struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.GetDB().Where("username = ?", loginReq.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !user.CheckPassword(loginReq.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(&user, s.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
