package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"errorhelper/internal/bridge"
	"errorhelper/internal/diagnostics"
	"errorhelper/internal/middleware"
	"errorhelper/internal/models"
	"errorhelper/internal/utils"
)

// WorkspaceHandler receives editor state from the extension shim.
type WorkspaceHandler struct {
	workspace *diagnostics.Workspace
	watcher   *diagnostics.Watcher
	logger    *zap.Logger
}

func NewWorkspaceHandler(workspace *diagnostics.Workspace, watcher *diagnostics.Watcher, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{workspace: workspace, watcher: watcher, logger: logger}
}

// SetActive handles PUT /api/v1/workspace/active
func (h *WorkspaceHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.ActiveDocumentRequest](r)

	lines := req.Lines
	if len(lines) == 0 {
		lines = utils.NormalizeLines(req.Text)
	}

	diags := make([]diagnostics.Diagnostic, 0, len(req.Diagnostics))
	for _, d := range req.Diagnostics {
		diags = append(diags, diagnostics.Diagnostic{
			Message: d.Message,
			Range: diagnostics.Range{
				StartLine:      d.StartLine,
				StartCharacter: d.StartCharacter,
				EndLine:        d.EndLine,
				EndCharacter:   d.EndCharacter,
			},
			Severity: diagnostics.Severity(d.Severity),
			Source:   d.Source,
		})
	}

	h.workspace.SetActive(req.URI, lines, diags)
	records := h.watcher.Refresh()

	h.logger.Debug("active document updated",
		zap.String("uri", req.URI),
		zap.Int("diagnostics", len(diags)),
		zap.Int("errors", len(records)))

	utils.JSON(w, http.StatusOK, models.ErrorListResponse{URI: req.URI, Errors: bridge.ErrorViews(records)})
}

// ClearActive handles DELETE /api/v1/workspace/active
func (h *WorkspaceHandler) ClearActive(w http.ResponseWriter, r *http.Request) {
	h.workspace.ClearActive()
	records := h.watcher.Refresh()
	utils.JSON(w, http.StatusOK, models.ErrorListResponse{Errors: bridge.ErrorViews(records)})
}
