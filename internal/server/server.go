// Package server exposes an Analyzer over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wizenheimer/tripwire"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 30
	serverMaxHeaderBytes      = 20

	maxBodyBytes = 1 << 20
	maxBatchSize = 1000

	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"
)

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Text    string `json:"text"`
	Explain bool   `json:"explain"`
}

// AnalyzeResponse is returned by POST /v1/analyze.
type AnalyzeResponse struct {
	Score  float64          `json:"score"`
	Report *tripwire.Report `json:"report,omitempty"`
}

// BatchRequest is the body of POST /v1/analyze/batch.
type BatchRequest struct {
	Texts []string `json:"texts"`
}

// BatchResponse holds one score per input text, in input order.
type BatchResponse struct {
	Scores []float64 `json:"scores"`
}

// LexiconResponse summarizes the lexicon served.
type LexiconResponse struct {
	Name      string `json:"name"`
	Entries   int    `json:"entries"`
	Wildcards int    `json:"wildcards"`
}

// Server routes scoring requests to one Analyzer.
type Server struct {
	analyzer *tripwire.Analyzer
	lexicon  LexiconResponse
	engine   *gin.Engine
}

// New builds a Server over a. name labels the lexicon in GET /v1/lexicon.
func New(a *tripwire.Analyzer, name string) *Server {
	lex := a.Lexicon()
	wildcards := 0
	for _, e := range lex.Entries {
		if e.IsWildcard() {
			wildcards++
		}
	}

	s := &Server{
		analyzer: a,
		lexicon: LexiconResponse{
			Name:      name,
			Entries:   len(lex.Entries),
			Wildcards: wildcards,
		},
	}
	s.engine = s.makeRouter()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) makeRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger())

	r.GET("/healthz", s.healthHandler)

	v1 := r.Group("/v1")
	v1.POST("/analyze", s.analyzeHandler)
	v1.POST("/analyze/batch", s.batchHandler)
	v1.GET("/lexicon", s.lexiconHandler)

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) analyzeHandler(c *gin.Context) {
	var req AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Explain {
		r := s.analyzer.Explain(req.Text)
		c.JSON(http.StatusOK, AnalyzeResponse{Score: r.Score, Report: &r})
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{Score: s.analyzer.Analyze(req.Text)})
}

func (s *Server) batchHandler(c *gin.Context) {
	var req BatchRequest
	if !bindJSON(c, &req) {
		return
	}

	if len(req.Texts) > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "too many texts",
			"limit": maxBatchSize,
		})
		return
	}

	scores := make([]float64, len(req.Texts))
	for i, text := range req.Texts {
		scores[i] = s.analyzer.Analyze(text)
	}
	c.JSON(http.StatusOK, BatchResponse{Scores: scores})
}

func (s *Server) lexiconHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.lexicon)
}

// bindJSON decodes the request body into v, writing a 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(v); err != nil {
		slog.Debug("invalid request body", "error", err, "request_id", c.GetString(RequestIDHeader))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
		})
		return false
	}
	return true
}

// requestID propagates the caller's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(RequestIDHeader))
	}
}

// Run serves h on address until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, address string, h http.Handler) error {
	s := &http.Server{
		Addr:           address,
		Handler:        h,
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("server started", "address", address)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped", "address", address)
	return nil
}
