package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sticky3d/deskgeom/pkg/buildinfo"
	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/mount"
	"github.com/sticky3d/deskgeom/pkg/pipeline"
	"github.com/sticky3d/deskgeom/pkg/placement"
	"github.com/sticky3d/deskgeom/pkg/render/diagram"
	"github.com/sticky3d/deskgeom/pkg/scene"
	"github.com/sticky3d/deskgeom/pkg/store"
	"github.com/sticky3d/deskgeom/pkg/surface"
)

type errorBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", middleware.GetReqID(r.Context()), "err", err)
	}
	var body errorBody
	body.Error.Code = string(errors.GetCode(err))
	if body.Error.Code == "" {
		body.Error.Code = string(errors.ErrCodeInternal)
	}
	body.Error.Message = errors.UserMessage(err)
	body.Error.RequestID = middleware.GetReqID(r.Context())
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	return nil
}

func boolParam(r *http.Request, name string) (value, set bool, err error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, errors.New(errors.ErrCodeInvalidInput, "query %s: %q is not a boolean", name, raw)
	}
	return v, true, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
	})
}

// solveOptions builds per-request options from the query string.
func (s *Server) solveOptions(r *http.Request) (pipeline.Options, error) {
	cfg := *s.cfg
	align, set, err := boolParam(r, "align")
	if err != nil {
		return pipeline.Options{}, err
	}
	if set {
		cfg.Placement.Align = align
	}
	refresh, _, err := boolParam(r, "refresh")
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{Config: &cfg, Refresh: refresh, Logger: s.logger}, nil
}

func (s *Server) solveBody(r *http.Request) (*scene.Scene, *pipeline.Result, error) {
	opts, err := s.solveOptions(r)
	if err != nil {
		return nil, nil, err
	}
	sc, err := scene.Decode(r.Body)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.runner.Solve(r.Context(), sc, opts)
	if err != nil {
		return nil, nil, err
	}
	return sc, res, nil
}

type solveResponse struct {
	Result *pipeline.Result `json:"result"`
	// Scene is the solved scene as TOML, ready to be saved.
	Scene string `json:"scene"`
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	sc, res, err := s.solveBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := scene.Encode(sc, &buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, solveResponse{Result: res, Scene: buf.String()})
}

var contentTypes = map[string]string{
	diagram.FormatDOT: "text/vnd.graphviz",
	diagram.FormatSVG: "image/svg+xml",
	diagram.FormatPNG: "image/png",
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = diagram.FormatSVG
	}
	if err := diagram.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	detailed, _, err := boolParam(r, "detailed")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sc, res, err := s.solveBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, hit, err := diagram.RenderCached(r.Context(), s.runner.Cache, s.runner.Keyer, sc, res,
		diagram.Options{Detailed: detailed}, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Cache", strconv.FormatBool(hit))
	_, _ = w.Write(out)
}

type projectRequest struct {
	Surface surface.Surface `json:"surface"`
	Ray     surface.Ray     `json:"ray"`
	// Checked reports a singular surface as an error instead of a miss.
	Checked bool `json:"checked"`
}

type projectResponse struct {
	surface.Hit
	Inside bool `json:"inside"`
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var hit surface.Hit
	if req.Checked {
		h, err := surface.ProjectChecked(req.Ray, req.Surface)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		hit = h
	} else {
		hit = surface.Project(req.Ray, req.Surface)
	}
	writeJSON(w, http.StatusOK, projectResponse{Hit: hit, Inside: hit.Inside()})
}

type mountRequest struct {
	Desk         surface.Surface `json:"desk"`
	Monitor      surface.Surface `json:"monitor"`
	DeskAnchor   mount.Anchor    `json:"desk_anchor"`
	Socket       mount.Anchor    `json:"socket"`
	BaseOffsetMM float64         `json:"base_offset_mm"`
}

type mountResponse struct {
	mount.Result
	OK bool `json:"ok"`
}

func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	var req mountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, surf := range []surface.Surface{req.Desk, req.Monitor} {
		if err := surf.Validate(); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	cfg := s.cfg.Mount
	cfg.BaseOffsetMM = req.BaseOffsetMM
	res, err := mount.Generate(req.Desk, req.Monitor, req.DeskAnchor, req.Socket, cfg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mountResponse{Result: res, OK: res.Summary.OK()})
}

func (s *Server) handleListDocks(w http.ResponseWriter, r *http.Request) {
	records, err := s.runner.Store.List(r.Context(), chi.URLParam(r, "scene"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handlePutDock(w http.ResponseWriter, r *http.Request) {
	var off placement.DockOffset
	if err := decodeJSON(r, &off); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec := store.Record{
		SceneID:  chi.URLParam(r, "scene"),
		ObjectID: chi.URLParam(r, "object"),
		Offset:   off,
	}
	if err := s.runner.Store.Put(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	stored, err := s.runner.Store.Get(r.Context(), rec.SceneID, rec.ObjectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteDock(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.Store.Delete(r.Context(), chi.URLParam(r, "scene"), chi.URLParam(r, "object")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
