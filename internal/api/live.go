package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-aps/internal/aps"
	"github.com/p-n-ai/pai-aps/internal/nsc"
)

// liveRequest is one message from a live-validation client: the full current
// selection, not a diff.
type liveRequest struct {
	Subjects      []nsc.Subject `json:"subjects"`
	InstitutionID string        `json:"institution_id,omitempty"`
}

// liveUpdate answers one liveRequest. APS is only present once the selection
// is complete enough to calculate.
type liveUpdate struct {
	Seq           int                    `json:"seq"`
	Selection     *nsc.SelectionResult   `json:"selection,omitempty"`
	Qualification nsc.QualificationLevel `json:"qualification,omitempty"`
	APS           *aps.Result            `json:"aps,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// handleLive re-validates the selection every time the client sends one, so a
// form can show progress as subjects are picked.
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originHosts(h.origins),
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer c.CloseNow()
	c.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	requestID := RequestID(ctx)
	slog.Info("live session opened", "request_id", requestID)

	for seq := 1; ; seq++ {
		_, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, ctx.Err()) {
				slog.Info("live session closed", "request_id", requestID, "messages", seq-1)
				return
			}
			slog.Warn("live session read failed", "request_id", requestID, "error", err)
			return
		}

		update := liveUpdate{Seq: seq}
		var req liveRequest
		if err := json.Unmarshal(data, &req); err != nil {
			update.Error = "invalid message: " + err.Error()
		} else {
			entered := nsc.Entered(req.Subjects)
			selection := nsc.ValidateSelection(entered)
			update.Selection = &selection
			update.Qualification = nsc.DetermineQualificationLevel(entered, nsc.LanguageOfLearning(entered))
			if selection.CanCalculate {
				result, err := h.engine.Score(ctx, entered, req.InstitutionID)
				if err != nil {
					slog.Warn("live scoring failed", "request_id", requestID, "institution_id", req.InstitutionID, "error", err)
					update.Error = "catalog unavailable"
				} else {
					update.APS = &result
				}
			}
		}

		if err := wsjson.Write(ctx, c, update); err != nil {
			slog.Warn("live session write failed", "request_id", requestID, "error", err)
			return
		}
	}
}

// originHosts converts configured CORS origins to the host patterns the
// WebSocket handshake checks.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			hosts = append(hosts, host)
			continue
		}
		hosts = append(hosts, o)
	}
	return hosts
}
