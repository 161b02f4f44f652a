package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/garmushka/pkg/bitmap"
	"github.com/matzehuels/garmushka/pkg/engine"
	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/export"
	"github.com/matzehuels/garmushka/pkg/session"
	"github.com/matzehuels/garmushka/pkg/store"
	"github.com/matzehuels/garmushka/pkg/units"
)

// createRequest opens a blank sheet when no image is uploaded.
type createRequest struct {
	Label    string `json:"label"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	UnitMode string `json:"unit_mode"`
}

// sessionResponse describes a live session.
type sessionResponse struct {
	ID      string         `json:"id"`
	Status  engine.Status  `json:"status"`
	Payload export.Payload `json:"payload"`
}

// commandsResponse reports each command's outcome and the resulting state.
type commandsResponse struct {
	Results []engine.Result `json:"results"`
	Status  engine.Status   `json:"status"`
	Rows    []store.Row     `json:"rows"`
}

// listEntry summarizes a saved session.
type listEntry struct {
	ID          string    `json:"id"`
	SourceLabel string    `json:"source_label"`
	Shapes      int       `json:"shapes"`
	Calibrated  bool      `json:"is_calibrated"`
	UpdatedAt   time.Time `json:"updated_at"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	l := &live{}
	opts := s.engineOptions()
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(ct, "image/") || ct == "application/octet-stream" {
		img, _, err := bitmap.Decode(bytes.NewReader(body))
		if err != nil {
			s.writeError(w, err)
			return
		}
		mode, err := units.ParseMode(r.URL.Query().Get("unit_mode"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		opts.UnitMode = mode
		width, height := bitmap.Size(img)
		l.bitmap = img
		l.label = r.URL.Query().Get("label")
		l.engine = engine.New(width, height, opts)
	} else {
		var req createRequest
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse request"))
			return
		}
		if req.Width <= 0 || req.Height <= 0 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "width and height must be positive"))
			return
		}
		if req.Width > bitmap.MaxPixels/req.Height {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "sheet %dx%d exceeds %d pixels", req.Width, req.Height, bitmap.MaxPixels))
			return
		}
		mode, err := units.ParseMode(req.UnitMode)
		if err != nil {
			s.writeError(w, err)
			return
		}
		opts.UnitMode = mode
		l.label = req.Label
		l.engine = engine.New(req.Width, req.Height, opts)
	}

	id := session.GenerateID()
	s.mu.Lock()
	s.live[id] = l
	s.mu.Unlock()
	s.logger.Info("session opened", "id", id, "label", l.label)

	w.Header().Set("Location", "/sessions/"+id)
	s.writeJSON(w, http.StatusCreated, sessionResponse{ID: id, Status: l.engine.Status(), Payload: s.payload(l)})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]listEntry, len(list))
	for i, sess := range list {
		out[i] = listEntry{
			ID:          sess.ID,
			SourceLabel: sess.SourceLabel(),
			Shapes:      len(sess.Payload.Shapes),
			Calibrated:  sess.Payload.IsCalibrated,
			UpdatedAt:   sess.UpdatedAt,
			ExpiresAt:   sess.ExpiresAt,
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	l, err := s.open(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{ID: id, Status: l.engine.Status(), Payload: s.payload(l)})
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	l, err := s.open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	cmds, err := decodeCommands(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err != nil {
		s.writeError(w, err)
		return
	}
	results := l.engine.Run(cmds)
	s.writeJSON(w, http.StatusOK, commandsResponse{Results: results, Status: l.engine.Status(), Rows: l.engine.Rows()})
}

// decodeCommands accepts a single command object or an array.
func decodeCommands(r io.Reader) ([]engine.Command, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	data = bytes.TrimSpace(data)
	var cmds []engine.Command
	if len(data) > 0 && data[0] == '{' {
		var c engine.Command
		err = json.Unmarshal(data, &c)
		cmds = []engine.Command{c}
	} else {
		err = json.Unmarshal(data, &cmds)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse commands")
	}
	return cmds, nil
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	l, err := s.open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, l.engine.Rows())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	l, err := s.open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, l.engine.Summary())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	l, err := s.open(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	f, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	p := s.payload(l)
	switch f {
	case export.FormatCSV:
		err = export.WriteCSV(p, &buf, export.CSVOptions{BOM: s.cfg.Export.CSVBOM, Summary: true})
	case export.FormatPNG:
		var data []byte
		data, err = export.CachedPNG(r.Context(), s.renders, s.scene(l), export.RasterOptions{Labels: true}, id)
		buf.Write(data)
	default:
		err = export.Write(&buf, f, p, export.Scene{}, export.RasterOptions{})
	}
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "export %s", f))
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+"."+string(f)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug("write export", "id", id, "format", f, "err", err)
	}
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	l, err := s.open(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	p := s.payload(l)
	if err := p.AttachSnapshot(export.Snapshot(s.scene(l), s.cfg.Export.SnapshotWidth, s.cfg.Export.SnapshotHeight)); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render snapshot"))
		return
	}

	s.mu.Lock()
	sess := l.saved
	if sess == nil {
		sess = session.New(p, s.cfg.Session.TTL.Duration)
		sess.ID = id
	} else {
		sess.Update(p, s.cfg.Session.TTL.Duration)
	}
	s.mu.Unlock()

	if err := s.store.Set(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}
	s.mu.Lock()
	l.saved = sess
	s.mu.Unlock()
	s.logger.Info("session saved", "id", id, "shapes", len(p.Shapes))
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id, "updated_at": sess.UpdatedAt})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSessionID(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.mu.Lock()
	delete(s.live, id)
	s.mu.Unlock()
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
