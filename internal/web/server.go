// Package web serves the portfolio modeling API: the session read model,
// the mutation endpoints, export/import and an SSE notification stream.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/b3ncr0w/financial-tools/internal/services/modeler"
	"github.com/b3ncr0w/financial-tools/internal/services/validator"
)

const (
	notificationPollInterval = 2 * time.Second
	maxImportSize            = 1 << 20
)

// Server exposes the HTTP API over a modeling service.
type Server struct {
	Addr     string
	Modeler  *modeler.Service
	Notifier *validator.Notifier
	Logger   *zap.Logger
}

// NewServer creates a new web server instance.
func NewServer(addr string, svc *modeler.Service, notifier *validator.Notifier, logger *zap.Logger) *Server {
	return &Server{Addr: addr, Modeler: svc, Notifier: notifier, Logger: logger}
}

func (s *Server) router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	api := router.Group("/api")
	api.GET("/session", s.getSession)

	api.POST("/tabs", s.addTab)
	api.PATCH("/tabs/:id", s.renameTab)
	api.DELETE("/tabs/:id", s.removeTab)
	api.POST("/tabs/:id/activate", s.activateTab)

	api.POST("/wallets", s.addWallet)
	api.PATCH("/wallets/:id", s.updateWallet)
	api.DELETE("/wallets/:id", s.removeWallet)
	api.POST("/wallets/:id/distribute", s.distributeWallet)

	api.POST("/wallets/:id/assets", s.addAsset)
	api.PATCH("/wallets/:id/assets/:assetId", s.updateAsset)
	api.DELETE("/wallets/:id/assets/:assetId", s.removeAsset)
	api.POST("/wallets/:id/assets/:assetId/distribute", s.distributeAsset)

	api.PUT("/capital", s.setCapital)
	api.PUT("/settings/auto-capital", s.setAutoCapital)
	api.PUT("/settings/auto-wallet", s.setAutoWallet)

	api.GET("/export", s.export)
	api.POST("/import", s.importDocument)

	api.GET("/notifications", s.listNotifications)
	api.POST("/notifications/:id/dismiss", s.dismissNotification)

	router.GET("/notifications/stream", s.handleNotificationStream)

	return router
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via
// ACME, plus an HTTP server on port 80 for the HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("http (acme) server shutdown error", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("https server shutdown error", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("http (acme) server error", zap.Error(err))
		}
	}()

	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) addTab(c *gin.Context) {
	meta := s.Modeler.AddTab()
	c.JSON(http.StatusCreated, meta)
}

func (s *Server) renameTab(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJSON(c, http.StatusBadRequest, err)
		return
	}
	s.Modeler.RenameTab(c.Param("id"), req.Name)
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) removeTab(c *gin.Context) {
	if err := s.Modeler.RemoveTab(c.Param("id")); err != nil {
		returnErrorJSON(c, http.StatusConflict, err)
		return
	}
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) activateTab(c *gin.Context) {
	s.Modeler.ActivateTab(c.Param("id"))
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) addWallet(c *gin.Context) {
	s.Modeler.AddWallet()
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) removeWallet(c *gin.Context) {
	s.Modeler.RemoveWallet(c.Param("id"))
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) distributeWallet(c *gin.Context) {
	s.Modeler.DistributeRemaining(c.Param("id"))
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) addAsset(c *gin.Context) {
	s.Modeler.AddAsset(c.Param("id"))
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) removeAsset(c *gin.Context) {
	s.Modeler.RemoveAsset(c.Param("id"), c.Param("assetId"))
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) distributeAsset(c *gin.Context) {
	s.Modeler.DistributeAsset(c.Param("id"), c.Param("assetId"))
	c.JSON(http.StatusOK, s.Modeler.View())
}

type updateRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

func (r updateRequest) fieldValue() (modeler.Field, modeler.FieldValue, error) {
	field := modeler.Field(r.Field)
	var fv modeler.FieldValue
	var err error
	if field == modeler.FieldName {
		err = json.Unmarshal(r.Value, &fv.Text)
	} else {
		err = json.Unmarshal(r.Value, &fv.Number)
	}
	return field, fv, err
}

func (s *Server) updateWallet(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJSON(c, http.StatusBadRequest, err)
		return
	}
	field, fv, err := req.fieldValue()
	if err != nil {
		returnErrorJSON(c, http.StatusBadRequest, err)
		return
	}
	if err := s.Modeler.UpdateWallet(c.Param("id"), field, fv); err != nil {
		returnErrorJSON(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) updateAsset(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJSON(c, http.StatusBadRequest, err)
		return
	}
	field, fv, err := req.fieldValue()
	if err != nil {
		returnErrorJSON(c, http.StatusBadRequest, err)
		return
	}
	if err := s.Modeler.UpdateAsset(c.Param("id"), c.Param("assetId"), field, fv); err != nil {
		returnErrorJSON(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) setCapital(c *gin.Context) {
	var req struct {
		TotalCapital *decimal.Decimal `json:"totalCapital"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJSON(c, http.StatusBadRequest, err)
		return
	}
	if err := s.Modeler.SetTotalCapital(req.TotalCapital); err != nil {
		returnErrorJSON(c, http.StatusConflict, err)
		return
	}
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) setAutoCapital(c *gin.Context) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJSON(c, http.StatusBadRequest, err)
		return
	}
	s.Modeler.SetAutoCapital(req.Enabled)
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) setAutoWallet(c *gin.Context) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJSON(c, http.StatusBadRequest, err)
		return
	}
	s.Modeler.SetAutoWallet(req.Enabled)
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) export(c *gin.Context) {
	doc, fileName := s.Modeler.Export()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.JSON(http.StatusOK, doc)
}

func (s *Server) importDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		returnErrorJSON(c, http.StatusBadRequest, fmt.Errorf("missing import file: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportSize+1))
	if err != nil {
		returnErrorJSON(c, http.StatusBadRequest, fmt.Errorf("read import file: %w", err))
		return
	}
	if len(data) > maxImportSize {
		returnErrorJSON(c, http.StatusRequestEntityTooLarge, fmt.Errorf("import file exceeds %d bytes", maxImportSize))
		return
	}

	if err := s.Modeler.Import(header.Filename, data); err != nil {
		returnErrorJSON(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, s.Modeler.View())
}

func (s *Server) listNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, s.Notifier.Active())
}

func (s *Server) dismissNotification(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		returnErrorJSON(c, http.StatusBadRequest, fmt.Errorf("invalid notification id %q", c.Param("id")))
		return
	}
	if !s.Notifier.Dismiss(id) {
		returnErrorJSON(c, http.StatusNotFound, fmt.Errorf("notification %d not found", id))
		return
	}
	c.Status(http.StatusNoContent)
}

// handleNotificationStream streams active notifications as SSE events. The
// notification id doubles as the event id so clients resume after the last
// one they saw.
func (s *Server) handleNotificationStream(c *gin.Context) {
	w := c.Writer
	flusher, ok := w.(http.Flusher)
	if !ok {
		c.String(http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// send a comment heartbeat every 20s so proxies keep connection
	heartbeat := time.NewTicker(20 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(notificationPollInterval)
	defer pollTicker.Stop()

	lastIndex := parseLastEventID(c.GetHeader("Last-Event-ID"), c.Query("last_event_id"))
	sendNotifications := func() error {
		for _, note := range s.Notifier.EventsAfter(lastIndex) {
			payload, err := json.Marshal(note)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "id: %d\n", note.ID)
			fmt.Fprintf(w, "event: notification\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = note.ID
		}
		return nil
	}

	if err := sendNotifications(); err != nil {
		s.Logger.Error("notification stream initial send", zap.Error(err))
		return
	}

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendNotifications(); err != nil {
				s.Logger.Error("notification stream poll", zap.Error(err))
			}
		}
	}
}

// parseLastEventID extracts an SSE event ID from either the Last-Event-ID
// header or a query parameter; the header wins.
func parseLastEventID(headerVal, queryVal string) uint64 {
	idStr := strings.TrimSpace(headerVal)
	if idStr == "" {
		idStr = strings.TrimSpace(queryVal)
	}
	if idStr == "" {
		return 0
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func returnErrorJSON(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}
