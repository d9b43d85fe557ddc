package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"errorhelper/internal/bridge"
	"errorhelper/internal/models"
	"errorhelper/internal/utils"
)

// BridgeHandler connects webview panels to the bridge.
type BridgeHandler struct {
	bridge   *bridge.Bridge
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewBridgeHandler accepts websocket upgrades from the given origins; "*" allows any.
func NewBridgeHandler(b *bridge.Bridge, allowedOrigins []string, logger *zap.Logger) *BridgeHandler {
	return &BridgeHandler{
		bridge:   b,
		upgrader: websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
		logger:   logger,
	}
}

// ServePanel handles GET /ws/panels/{panel_id}?kind=chat|detail|tree&fingerprint=<id>
func (h *BridgeHandler) ServePanel(w http.ResponseWriter, r *http.Request) {
	panelID := chi.URLParam(r, "panel_id")
	kindParam := r.URL.Query().Get("kind")
	if kindParam == "" {
		kindParam = string(bridge.KindChat)
	}
	kind, ok := bridge.ParseKind(kindParam)
	if !ok {
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{Code: "invalid_kind", Message: "kind must be chat, detail or tree"})
		return
	}
	fingerprint := utils.NormalizeID(r.URL.Query().Get("fingerprint"))
	if kind == bridge.KindDetail && fingerprint == "" {
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{Code: "missing_fingerprint", Message: "detail panels need a fingerprint"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("panel", panelID), zap.Error(err))
		return
	}
	defer conn.Close()

	panel := h.bridge.Open(panelID, kind, fingerprint, bridge.NewClient(conn))
	defer h.bridge.Close(panel)

	h.logger.Info("panel connected", zap.String("panel", panelID), zap.String("kind", string(kind)))
	if err := h.bridge.Serve(r.Context(), conn, panel); err != nil {
		h.logger.Debug("panel disconnected", zap.String("panel", panelID), zap.Error(err))
	}
}

// Transcript handles GET /api/v1/chat/{panel_id}/messages
func (h *BridgeHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	panelID := chi.URLParam(r, "panel_id")
	panel, ok := h.bridge.Panel(panelID)
	if !ok {
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{Code: "panel_not_found", Message: "No open panel with this id"})
		return
	}

	msgs := panel.Session().Messages()
	out := make([]models.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, models.ChatMessage{Role: string(m.Role), Text: m.Text, Index: m.Index})
	}
	utils.JSON(w, http.StatusOK, models.ChatTranscriptResponse{PanelID: panelID, Messages: out})
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
