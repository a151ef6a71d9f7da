package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/lightdesk/pkg/buildinfo"
	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/playback"
	"github.com/matzehuels/lightdesk/pkg/stage"
)

type idResponse struct {
	ID string `json:"id"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type kindInfo struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	InitialConfig json.RawMessage `json:"initialConfig"`
}

type kindsResponse struct {
	Inputs  []kindInfo `json:"inputs"`
	Outputs []kindInfo `json:"outputs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stage.Config())
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg stage.Config
	if err := s.decode(w, r, &cfg); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.stage.Check(cfg); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.stage.Replace(r.Context(), cfg, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.stage.Config())
}

func (s *Server) handleKinds(w http.ResponseWriter, _ *http.Request) {
	resp := kindsResponse{Inputs: []kindInfo{}, Outputs: []kindInfo{}}
	for _, k := range s.stage.Inputs().Kinds() {
		resp.Inputs = append(resp.Inputs, kindInfo{k.Name, k.Description, k.InitialConfig})
	}
	for _, k := range s.stage.OutputKinds() {
		resp.Outputs = append(resp.Outputs, kindInfo{k.Name, k.Description, k.InitialConfig})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDesk(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stage.Desk())
}

func (s *Server) handleAddCue(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if r.ContentLength != 0 {
		if err := s.decode(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	id, err := s.stage.AddCue(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{id})
}

func (s *Server) handleDeleteCue(w http.ResponseWriter, r *http.Request) {
	if err := s.stage.DeleteCue(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenameCue(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.stage.RenameCue(r.Context(), chi.URLParam(r, "id"), req.Name); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetCueModule takes a node, or null to clear the cue.
func (s *Server) handleSetCueModule(w http.ResponseWriter, r *http.Request) {
	var n *config.Node
	if err := s.decode(w, r, &n); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.stage.SetCueModule(r.Context(), chi.URLParam(r, "id"), n); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetCurrent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cue *string `json:"cue"`
	}
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.stage.SetCurrentCue(r.Context(), req.Cue); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetDimmer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value float64 `json:"value"`
	}
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.stage.SetDimmer(r.Context(), req.Value); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddOutput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.stage.AddOutput(r.Context(), req.Kind, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{id})
}

func (s *Server) handleDeleteOutput(w http.ResponseWriter, r *http.Request) {
	if err := s.stage.DeleteOutput(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenameOutput(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.stage.RenameOutput(r.Context(), chi.URLParam(r, "id"), req.Name); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetOutputConfig(w http.ResponseWriter, r *http.Request) {
	raw, err := s.readRaw(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.stage.SetOutputConfig(r.Context(), chi.URLParam(r, "id"), raw); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPlayback(w http.ResponseWriter, _ *http.Request) {
	snap := s.stage.Playback().Load()
	files := make([]string, 0, len(snap.Files))
	for hash := range snap.Files {
		files = append(files, hash)
	}
	writeJSON(w, http.StatusOK, struct {
		Play  playback.PlayState `json:"play"`
		Files []string           `json:"files"`
	}{snap.Play, sorted(files)})
}

func (s *Server) handlePutPlayback(w http.ResponseWriter, r *http.Request) {
	var ps playback.PlayState
	if err := s.decode(w, r, &ps); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.stage.Playback().SetPlayState(ps)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePutFile(w http.ResponseWriter, r *http.Request) {
	var f playback.CueFile
	if err := s.decode(w, r, &f); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.stage.Playback().PutFile(chi.URLParam(r, "id"), f); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetBeat(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stage.Tempo().Status())
}

func (s *Server) handleTapBeat(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stage.TapBeat())
}

func (s *Server) handleStopBeat(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stage.StopBeat())
}
