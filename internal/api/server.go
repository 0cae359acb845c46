package api

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/marv-media/grant-finder/internal/auth"
	"github.com/marv-media/grant-finder/internal/certs"
	"github.com/marv-media/grant-finder/internal/ingest"
	"github.com/marv-media/grant-finder/internal/profile"
	"github.com/marv-media/grant-finder/internal/store"
)

type Server struct {
	Echo        *echo.Echo
	Store       *store.Store
	AuthService *auth.Service
	DB          *pgxpool.Pool
	Company     *profile.Company
	Registry    *ingest.Registry
	Catalog     *certs.Catalog
	Logger      *zap.Logger

	jobMu      sync.Mutex
	runningJob *scanJob
}

// scanJob tracks a background scan triggered over the API.
type scanJob struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"` // running, completed, failed
	StartedAt time.Time          `json:"started_at"`
	EndedAt   *time.Time         `json:"ended_at,omitempty"`
	Result    *ingest.ScanStats  `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	cancel    context.CancelFunc `json:"-"`
}

func NewServer(pool *pgxpool.Pool, company *profile.Company, registry *ingest.Registry, catalog *certs.Catalog, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		Echo:        e,
		Store:       store.NewStore(pool),
		AuthService: auth.NewService(pool),
		DB:          pool,
		Company:     company,
		Registry:    registry,
		Catalog:     catalog,
		Logger:      logger.Named("api"),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.GET("/grants", s.handleListGrants)
	api.GET("/grants/:id", s.handleGetGrant)
	api.GET("/matches", s.handleMatches)
	api.GET("/alerts", s.handleAlerts)
	api.GET("/profile", s.handleProfile)
	api.GET("/sources", s.handleSources)
	api.GET("/certifications", s.handleCertifications)

	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	admin := api.Group("/admin")
	admin.Use(auth.Middleware)
	admin.POST("/scan", s.handleTriggerScan)
	admin.POST("/export", s.handleExport)
	admin.GET("/job/:id", s.handleJobStatus)
}

// Start runs the server until ctx is canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Echo.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Signup(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrUserExists {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrInvalidCreds {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

// handleTriggerScan kicks off a background scan of all enabled
// sources. Only one scan runs at a time.
func (s *Server) handleTriggerScan(c echo.Context) error {
	s.jobMu.Lock()
	if s.runningJob != nil && s.runningJob.Status == "running" {
		job := s.runningJob
		s.jobMu.Unlock()
		return c.JSON(http.StatusConflict, map[string]any{
			"error": "scan already running",
			"job":   job,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	job := &scanJob{
		ID:        uuid.NewString(),
		Status:    "running",
		StartedAt: time.Now().UTC(),
		cancel:    cancel,
	}
	s.runningJob = job
	s.jobMu.Unlock()

	go func() {
		defer cancel()
		stats, err := s.runScan(ctx)

		s.jobMu.Lock()
		defer s.jobMu.Unlock()
		now := time.Now().UTC()
		job.EndedAt = &now
		if err != nil {
			job.Status = "failed"
			job.Error = err.Error()
			s.Logger.Error("scan job failed", zap.String("job_id", job.ID), zap.Error(err))
			return
		}
		job.Status = "completed"
		job.Result = &stats
	}()

	return c.JSON(http.StatusAccepted, job)
}

func (s *Server) runScan(ctx context.Context) (ingest.ScanStats, error) {
	sources, err := ingest.BuildSources(s.Registry, s.Logger)
	if err != nil {
		return ingest.ScanStats{}, err
	}

	scanner := ingest.NewScanner(sources, s.Store, s.Logger)
	stats, err := scanner.Scan(ctx)
	if err != nil {
		return stats, err
	}
	if err := s.Store.SaveScanRun(ctx, stats); err != nil {
		s.Logger.Warn("failed to record scan run", zap.Error(err))
	}
	return stats, nil
}

func (s *Server) handleJobStatus(c echo.Context) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if s.runningJob == nil || s.runningJob.ID != c.Param("id") {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	return c.JSON(http.StatusOK, s.runningJob)
}
