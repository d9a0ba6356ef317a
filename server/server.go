// Package server exposes the extraction pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"facturaocr/pkg/pipeline"
)

// DefaultMaxUpload bounds the accepted file size; multi-page PDFs at scan
// resolution rarely exceed it.
const DefaultMaxUpload = 20 << 20

// Processor turns one uploaded file into processed pages.
type Processor interface {
	ProcessFile(ctx context.Context, path string) ([]*pipeline.Page, error)
}

// Server handles extraction requests.
type Server struct {
	proc      Processor
	maxUpload int64
	// tmpDir holds uploads while they are processed; "" means os.TempDir.
	tmpDir string
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUpload overrides DefaultMaxUpload.
func WithMaxUpload(n int64) Option {
	return func(s *Server) { s.maxUpload = n }
}

// WithTempDir sets where uploads are staged.
func WithTempDir(dir string) Option {
	return func(s *Server) { s.tmpDir = dir }
}

// New returns a Server backed by proc.
func New(proc Processor, opts ...Option) *Server {
	s := &Server{proc: proc, maxUpload: DefaultMaxUpload}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

// SetupRoutes registers the service endpoints on r.
func (s *Server) SetupRoutes(r *gin.Engine) {
	r.GET("/healthz", s.healthHandler)
	r.POST("/extract", s.extractHandler)
}

// Router returns a gin engine with the service routes and gin's default
// middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	s.SetupRoutes(r)
	return r
}

type fieldJSON struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Found bool   `json:"found"`
}

type pageJSON struct {
	Page         int         `json:"page"`
	Suffix       string      `json:"suffix,omitempty"`
	DocumentType string      `json:"document_type"`
	Fields       []fieldJSON `json:"fields"`
	Report       string      `json:"report"`
}

type extractResponse struct {
	File  string     `json:"file"`
	Pages []pageJSON `json:"pages"`
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) extractHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > s.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	if !pipeline.IsSupported(file.Filename) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported file type"})
		return
	}

	dir, err := os.MkdirTemp(s.tmpDir, "extract-")
	if err != nil {
		slog.Error("create staging dir", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "staging failed"})
		return
	}
	defer os.RemoveAll(dir)
	staged := filepath.Join(dir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, staged); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	start := time.Now()
	pages, err := s.proc.ProcessFile(c.Request.Context(), staged)
	if err != nil {
		if errors.Is(err, pipeline.ErrUnsupportedInput) {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
			return
		}
		slog.Error("extraction failed", "file", file.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "extraction failed"})
		return
	}
	slog.Info("extraction done", "file", file.Filename, "pages", len(pages), "elapsed", time.Since(start))

	resp := extractResponse{File: file.Filename, Pages: make([]pageJSON, 0, len(pages))}
	for _, p := range pages {
		resp.Pages = append(resp.Pages, toPageJSON(p))
	}
	c.JSON(http.StatusOK, resp)
}

func toPageJSON(p *pipeline.Page) pageJSON {
	out := pageJSON{
		Page:         p.Index + 1,
		Suffix:       p.Suffix,
		DocumentType: p.Type.String(),
		Report:       p.Report,
	}
	if p.Fields != nil {
		for _, kv := range p.Fields.Pairs() {
			out.Fields = append(out.Fields, fieldJSON{Name: kv[0], Value: kv[1], Found: p.Fields.Found(kv[0])})
		}
	}
	return out
}
