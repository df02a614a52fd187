package inpaint

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/muralmend/internal/progress"
	"github.com/example/muralmend/internal/restore"
)

// MaxRequestBytes bounds the /process body.
const MaxRequestBytes = 100 << 20

// ErrBusy is reported when a request arrives while another is running.
var ErrBusy = errors.New("another image is being processed")

// Server serves GET /status and POST /process.
type Server struct {
	restorer Restorer
	log      *slog.Logger
	onStage  func(progress.Status)

	mu     sync.Mutex
	status progress.Status
	busy   atomic.Bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRestorer replaces the default Diffusion restorer.
func WithRestorer(r Restorer) ServerOption {
	return func(s *Server) { s.restorer = r }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStageHook is called after every progress update.
func WithStageHook(fn func(progress.Status)) ServerOption {
	return func(s *Server) { s.onStage = fn }
}

// NewServer returns an idle server.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		restorer: Diffusion{Smooth: 1},
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		status:   idle(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func idle() progress.Status { return progress.Status{Progress: 0, Message: "idle"} }

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/process", s.handleProcess)
	return mux
}

// Status returns the current progress.
func (s *Server) Status() progress.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Server) setProgress(p int, msg string) {
	s.mu.Lock()
	s.status = progress.Status{Progress: p, Message: msg}
	st := s.status
	s.mu.Unlock()
	if s.onStage != nil {
		s.onStage(st)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Status())
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	code, resp := s.serveProcess(r)
	writeJSON(w, code, resp)
}

// serveProcess runs one request and releases the server before the
// response is written.
func (s *Server) serveProcess(r *http.Request) (int, restore.ProcessResponse) {
	if !s.busy.CompareAndSwap(false, true) {
		return http.StatusConflict, restore.ProcessResponse{Message: ErrBusy.Error()}
	}
	defer s.busy.Store(false)

	log := s.log.With("request", r.Header.Get(restore.RequestIDHeader))
	var req restore.ProcessRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxRequestBytes)).Decode(&req); err != nil {
		log.Warn("bad request", "err", err)
		return http.StatusBadRequest, restore.ProcessResponse{Message: fmt.Sprintf("invalid request: %v", err)}
	}

	resp, err := s.Process(req)
	if err != nil {
		log.Error("processing failed", "err", err)
		return http.StatusUnprocessableEntity, restore.ProcessResponse{Message: err.Error()}
	}
	log.Info("processed", "regions", len(req.Rectangles), "seconds", resp.Time)
	return http.StatusOK, resp
}

// Process runs the restoration pipeline for one request, updating the
// progress reported by /status along the way. The status returns to idle
// when it finishes.
func (s *Server) Process(req restore.ProcessRequest) (restore.ProcessResponse, error) {
	start := time.Now()
	defer s.setProgress(0, "idle")
	s.setProgress(0, "")
	s.setProgress(5, "Starting image processing...")

	src, _, err := restore.DecodeDataURL(req.Image)
	if err != nil {
		return restore.ProcessResponse{}, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()

	boxes := make([]image.Rectangle, 0, len(req.Rectangles))
	for _, r := range req.Rectangles {
		boxes = append(boxes, r.Box().Add(b.Min))
	}
	mask := BuildMask(b, boxes)
	s.setProgress(20, "Mask created")

	patches := Split(src, mask, PatchSize, PatchStride)
	s.setProgress(40, fmt.Sprintf("Split image into %d patches", len(patches)))

	s.setProgress(60, "Preparing model input")
	for i := range patches {
		if Coverage(patches[i].Mask) == 0 {
			continue
		}
		patches[i].Image = s.restorer.Restore(patches[i])
	}
	s.setProgress(85, "Model processing complete")

	out := Merge(patches, b.Dx(), b.Dy())
	url, err := restore.EncodeDataURL(out)
	if err != nil {
		return restore.ProcessResponse{}, err
	}
	elapsed := time.Since(start).Seconds()
	s.setProgress(100, "Done")
	return restore.ProcessResponse{
		Success: true,
		Message: fmt.Sprintf("Processed %d patches in %.2f seconds", len(patches), elapsed),
		Time:    elapsed,
		Result:  url,
	}, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Debug("write response", "err", err)
	}
}
