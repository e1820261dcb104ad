// Package server exposes the explorer over HTTP and pushes surfaces to browsers over a websocket.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/rfsurface/internal/explorer"
	"github.com/Faultbox/rfsurface/internal/grid"
	"github.com/Faultbox/rfsurface/internal/preview"
	"github.com/Faultbox/rfsurface/internal/source"
	"github.com/Faultbox/rfsurface/internal/surface"
	"github.com/Faultbox/rfsurface/pkg/rfdata"
)

// multipartMemory is how much of an upload is kept in memory before spilling to disk.
const multipartMemory = 32 << 20

// Options configure a Server.
type Options struct {
	Explorer *explorer.Explorer
	Hub      *Hub
	// DataDir is served under /data/. Empty disables the data endpoint.
	DataDir     string
	MaxUploadMB int64
	Log         *zap.Logger
}

// Server serves the explorer API.
type Server struct {
	ex        *explorer.Explorer
	hub       *Hub
	dataDir   string
	maxUpload int64
	log       *zap.Logger
}

// New creates a server. A nil Hub gets a private one that no state broadcasts to.
func New(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	hub := opts.Hub
	if hub == nil {
		hub = NewHub(log)
	}
	maxUpload := opts.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 64
	}
	return &Server{
		ex:        opts.Explorer,
		hub:       hub,
		dataDir:   opts.DataDir,
		maxUpload: maxUpload << 20,
		log:       log,
	}
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ServeMux returns the routing table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.homeHandler)
	if s.dataDir != "" {
		mux.Handle("GET /data/", http.StripPrefix("/data/", s.dataHandler()))
	}
	mux.HandleFunc("POST /api/sample", s.loadSample)
	mux.HandleFunc("POST /api/analyze", s.analyze)
	mux.HandleFunc("GET /api/surface", s.showSurface)
	mux.HandleFunc("POST /api/pick", s.pick)
	mux.HandleFunc("GET /api/layers", s.showLayers)
	mux.HandleFunc("POST /api/layers", s.setLayers)
	mux.HandleFunc("GET /api/status", s.showStatus)
	mux.HandleFunc("GET /api/preview.png", s.showPreview)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, "rfsurface server\n")
}

// dataHandler serves only the two dataset files.
func (s *Server) dataHandler() http.Handler {
	files := http.FileServer(http.Dir(s.dataDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case rfdata.MetaFile, rfdata.PowerFile:
			files.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encoding response failed", zap.Error(err))
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// errorStatus maps build errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, surface.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, surface.ErrNoSurface):
		return http.StatusNotFound
	case source.IsKind(err, source.KindInput):
		return http.StatusBadRequest
	case source.IsKind(err, source.KindDecode):
		return http.StatusUnprocessableEntity
	case source.IsKind(err, source.KindFetch):
		return http.StatusBadGateway
	case errors.Is(err, surface.ErrDegenerateGrid):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// SurfaceSummary describes a surface without its mesh.
type SurfaceSummary struct {
	ID        string          `json:"id"`
	Layout    json.RawMessage `json:"layout"`
	Dims      grid.Dimensions `json:"dims"`
	Triangles int             `json:"triangles"`
	Stats     grid.Summary    `json:"stats"`
	BuiltAt   time.Time       `json:"built_at"`
}

func summarize(surf *surface.Surface) (SurfaceSummary, error) {
	layout, err := surface.MarshalLayout(surf.Layout)
	if err != nil {
		return SurfaceSummary{}, err
	}
	return SurfaceSummary{
		ID:        surf.ID.String(),
		Layout:    layout,
		Dims:      surf.Mesh.Dims,
		Triangles: surf.Mesh.TriangleCount(),
		Stats:     surf.Stats,
		BuiltAt:   surf.BuiltAt,
	}, nil
}

type buildResponse struct {
	Status  explorer.Status `json:"status"`
	Surface SurfaceSummary  `json:"surface"`
}

func (s *Server) respondBuild(w http.ResponseWriter, surf *surface.Surface, err error) {
	if err != nil {
		s.writeJSONError(w, errorStatus(err), err.Error())
		return
	}
	summary, err := summarize(surf)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, buildResponse{Status: s.ex.Status(), Surface: summary})
}

func (s *Server) loadSample(w http.ResponseWriter, r *http.Request) {
	surf, err := s.ex.LoadSample(r.Context())
	s.respondBuild(w, surf, err)
}

// analyzeParams reads mode, downsample and row form fields. Missing fields keep
// the current value.
func (s *Server) analyzeParams(r *http.Request) (explorer.Params, error) {
	p := s.ex.Params()
	if v := r.FormValue("mode"); v != "" {
		mode, err := surface.ParseMode(v)
		if err != nil {
			return p, err
		}
		p.Mode = mode
	}
	if v := r.FormValue("downsample"); v != "" {
		ds, err := strconv.Atoi(v)
		if err != nil || ds < 1 {
			return p, fmt.Errorf("invalid downsample %q", v)
		}
		p.Downsample = ds
	}
	if v := r.FormValue("row"); v != "" {
		row, err := grid.ParseRowPolicy(v)
		if err != nil {
			return p, err
		}
		p.Row = row
	}
	return p, nil
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse upload: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	p, err := s.analyzeParams(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	headers := r.MultipartForm.File["files"]
	files := make([]source.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Failed to open %s: %v", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read %s: %v", fh.Filename, err))
			return
		}
		files = append(files, source.NewFile(fh.Filename, fh.Header.Get("Content-Type"), data))
	}

	surf, err := s.ex.AnalyzeWith(r.Context(), files, p)
	s.respondBuild(w, surf, err)
}

func (s *Server) showSurface(w http.ResponseWriter, r *http.Request) {
	surf, err := s.ex.State().Current()
	if err != nil {
		s.writeJSONError(w, errorStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, surf)
}

func (s *Server) pick(w http.ResponseWriter, r *http.Request) {
	var req RayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid ray: %v", err))
		return
	}
	if req.Direction == ([3]float32{}) {
		s.writeJSONError(w, http.StatusBadRequest, "ray direction must be non-zero")
		return
	}
	s.writeJSON(w, http.StatusOK, newReadoutResponse(s.ex.Hover(req.Ray())))
}

func (s *Server) showLayers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ex.Layers())
}

func (s *Server) setLayers(w http.ResponseWriter, r *http.Request) {
	var l surface.Layers
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid layers: %v", err))
		return
	}
	s.applyLayers(l)
	s.writeJSON(w, http.StatusOK, l)
}

func (s *Server) applyLayers(l surface.Layers) {
	s.ex.SetLayers(l)
	s.hub.Broadcast(Message{Type: TypeLayers, Layers: &l})
}

type statusResponse struct {
	Status  explorer.Status  `json:"status"`
	Params  explorer.Params  `json:"params"`
	Layers  surface.Layers   `json:"layers"`
	Readout *ReadoutResponse `json:"readout"`
	Clients int              `json:"clients"`
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{
		Status:  s.ex.Status(),
		Params:  s.ex.Params(),
		Layers:  s.ex.Layers(),
		Readout: newReadoutResponse(s.ex.Readout()),
		Clients: s.hub.Len(),
	})
}

func (s *Server) showPreview(w http.ResponseWriter, r *http.Request) {
	surf, err := s.ex.State().Current()
	if err != nil {
		s.writeJSONError(w, errorStatus(err), err.Error())
		return
	}
	opts := preview.DefaultOptions()
	if surf.Layout.Mode() == surface.ModeMulti {
		opts.YLabel = "image"
	}

	var buf bytes.Buffer
	if err := preview.WritePNG(&buf, surf.Grid, opts); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.hub.upgrade(w, r)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer s.hub.remove(conn)

	layers := s.ex.Layers()
	if err := s.hub.Send(conn, Message{Type: TypeLayers, Layers: &layers}); err != nil {
		return
	}
	if surf, err := s.ex.State().Current(); err == nil {
		if err := s.hub.Send(conn, Message{Type: TypeSurface, Surface: surf}); err != nil {
			return
		}
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			s.log.Debug("websocket read ended", zap.Error(err))
			return
		}

		switch msg.Type {
		case TypeLayers:
			if msg.Layers == nil {
				s.hub.Send(conn, Message{Type: TypeError, Error: "layers message without layers"})
				continue
			}
			s.applyLayers(*msg.Layers)
		case TypePick:
			if msg.Ray == nil {
				s.hub.Send(conn, Message{Type: TypeError, Error: "pick message without ray"})
				continue
			}
			s.hub.Send(conn, Message{Type: TypeReadout, Readout: newReadoutResponse(s.ex.Hover(msg.Ray.Ray()))})
		case TypeStatus:
			st := s.ex.Status()
			s.hub.Send(conn, Message{Type: TypeStatus, Status: &st})
		default:
			s.hub.Send(conn, Message{Type: TypeError, Error: fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}
}
