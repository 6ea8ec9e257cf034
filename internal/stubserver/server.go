package stubserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// APIVersion is reported by / and /health.
const APIVersion = "1.0.0"

// isoLayout matches the zone-less ISO-8601 timestamps of the original
// service.
const isoLayout = "2006-01-02T15:04:05.000000"

var requiredFields = []string{
	"length", "height", "width", "weight",
	"engine_power", "top_speed", "axle_count",
	"seats", "fuel_type",
}

// Server is a local stand-in for the classification service.
type Server struct {
	router         *gin.Engine
	logger         *zap.Logger
	allowedOrigins []string
	modelLoaded    bool
	now            func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAllowedOrigins restricts CORS to the listed origins. Without it every
// origin is echoed back.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithModelLoaded controls whether the model is reported as loaded. An
// unloaded model makes /predict and /model-info fail with 500.
func WithModelLoaded(loaded bool) Option {
	return func(s *Server) { s.modelLoaded = loaded }
}

// WithClock overrides the time source used for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a Server with its routes registered.
func New(opts ...Option) *Server {
	s := &Server{
		router:      gin.New(),
		logger:      zap.NewNop(),
		modelLoaded: true,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router.Use(gin.Recovery(), s.requestLogger(), s.cors())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleHome)
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/predict", s.handlePredict)
	s.router.GET("/model-info", s.handleModelInfo)
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("stub server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down stub server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("origin", c.GetHeader("Origin")),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case len(s.allowedOrigins) == 0:
			if origin == "" {
				origin = "*"
			}
			c.Header("Access-Control-Allow-Origin", origin)
		case slices.Contains(s.allowedOrigins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Header("Access-Control-Allow-Headers", "Content-Type,Authorization,X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Credentials", "false")

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Max-Age", "3600")
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"status": "OK"})
			return
		}
		c.Next()
	}
}

func (s *Server) timestamp() string {
	return s.now().Format(isoLayout)
}

func (s *Server) handleHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":      "Vehicle Type Classification API",
		"status":       "active",
		"model_loaded": s.modelLoaded,
		"timestamp":    s.timestamp(),
		"version":      APIVersion,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	if !s.modelLoaded {
		status = "unhealthy"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"model_loaded": s.modelLoaded,
		"api_version":  APIVersion,
		"go_version":   runtime.Version(),
		"timestamp":    s.timestamp(),
	})
}

func (s *Server) handleModelInfo(c *gin.Context) {
	if !s.modelLoaded {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Model not loaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"model_type":    "RuleBasedClassifier",
		"feature_count": len(featureColumns),
		"features":      featureColumns,
		"classes":       classes,
	})
}

func (s *Server) handlePredict(c *gin.Context) {
	if !s.modelLoaded {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Model not loaded"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data: " + err.Error()})
		return
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil || data == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data: request body must be a JSON object"})
		return
	}
	for _, f := range requiredFields {
		if _, ok := data[f]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing field: " + f})
			return
		}
	}

	v, err := decodeVehicle(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data: " + err.Error()})
		return
	}
	label, confidence := classifyVehicle(v)
	s.logger.Info("prediction",
		zap.String("prediction", label),
		zap.Float64("confidence", confidence),
		zap.Float64s("features", v.Features()))

	c.JSON(http.StatusOK, gin.H{
		"prediction": label,
		"confidence": confidence,
		"input_data": data,
		"timestamp":  s.timestamp(),
	})
}

func decodeVehicle(data map[string]any) (vehicle, error) {
	var v vehicle
	var err error
	floats := []struct {
		name string
		dst  *float64
	}{
		{"length", &v.Length},
		{"height", &v.Height},
		{"width", &v.Width},
		{"weight", &v.Weight},
		{"engine_power", &v.EnginePower},
		{"top_speed", &v.TopSpeed},
	}
	for _, f := range floats {
		if *f.dst, err = toFloat(f.name, data[f.name]); err != nil {
			return v, err
		}
	}
	if v.AxleCount, err = toInt("axle_count", data["axle_count"]); err != nil {
		return v, err
	}
	if v.Seats, err = toInt("seats", data["seats"]); err != nil {
		return v, err
	}
	fuel, ok := data["fuel_type"].(string)
	if !ok {
		return v, fmt.Errorf("fuel_type must be a string")
	}
	v.Fuel = strings.ToLower(fuel)
	return v, nil
}

func toFloat(name string, raw any) (float64, error) {
	switch x := raw.(type) {
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("could not convert %s to float: %q", name, x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("could not convert %s to float: %v", name, raw)
	}
}

func toInt(name string, raw any) (int, error) {
	switch x := raw.(type) {
	case float64:
		return int(x), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("invalid literal for int() with base 10 for %s: %q", name, x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("could not convert %s to int: %v", name, raw)
	}
}
