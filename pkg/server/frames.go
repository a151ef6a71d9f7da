package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/lightdesk/pkg/errors"
	"github.com/matzehuels/lightdesk/pkg/outputs"
)

const writeWait = 10 * time.Second

// frameSource is implemented by outputs that publish frames.
type frameSource interface {
	Subscribe() (<-chan outputs.Frame, func())
}

// handleFrames streams an output's frames as JSON text messages until the
// client goes away or the output is removed.
func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	out, ok := s.stage.Output(id)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "output %s not found", id))
		return
	}
	src, ok := out.(frameSource)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "output %s does not stream frames", id))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the response.
		s.logger.Debug("websocket upgrade", "output", id, "err", err)
		return
	}
	defer conn.Close()

	frames, cancel := src.Subscribe()
	defer cancel()

	// The read loop only notices the client closing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.opts.PingInterval)
	defer ping.Stop()
	s.logger.Debug("frame stream opened", "output", id)
	for {
		select {
		case f, ok := <-frames:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "output removed"))
				return
			}
			msg, err := json.Marshal(f)
			if err != nil {
				s.logger.Error("encode frame", "output", id, "err", err)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Debug("frame stream write", "output", id, "err", err)
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			s.logger.Debug("frame stream closed", "output", id)
			return
		case <-r.Context().Done():
			return
		}
	}
}

func sorted(s []string) []string {
	slices.Sort(s)
	return s
}
