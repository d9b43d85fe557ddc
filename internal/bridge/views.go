package bridge

import (
	"fmt"

	"errorhelper/internal/diagnostics"
	"errorhelper/internal/models"
)

// ErrorView renders a record for the error tree. Lines are shown 1-based.
func ErrorView(r diagnostics.ErrorRecord) models.ErrorView {
	view := models.ErrorView{
		ID:      r.Fingerprint.ID(),
		Message: r.Diagnostic.Message,
		Line:    r.Diagnostic.Range.StartLine,
		Label:   fmt.Sprintf("L%d", r.Diagnostic.Range.StartLine+1),
		Status:  r.Solution.Status.String(),
	}
	if r.Solution.HasSolution() {
		view.Solution = r.Solution.Text
		view.RequestID = r.Solution.RequestID
	}
	return view
}

func ErrorViews(records []diagnostics.ErrorRecord) []models.ErrorView {
	views := make([]models.ErrorView, 0, len(records))
	for _, r := range records {
		views = append(views, ErrorView(r))
	}
	return views
}
