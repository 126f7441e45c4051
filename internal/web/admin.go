package web

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/journal"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/metrics"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleAttemptsExport streams the booking attempt journal as a spreadsheet.
// GET /admin/attempts.xlsx?since=YYYY-MM-DD&status=...
func (s *Server) handleAttemptsExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_export")

	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "journal disabled")
		return
	}

	q := r.URL.Query()
	var since time.Time
	if v := q.Get("since"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		since = d.Time(s.loc)
	}

	entries, err := s.journal.List(r.Context(), since, q.Get("status"))
	if err != nil {
		s.logger.Error().Err(err).Msg("list attempts")
		writeError(w, http.StatusInternalServerError, "failed to read journal")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="attempts-%s.xlsx"`, s.now().In(s.loc).Format("20060102")))
	if err := journal.WriteXLSX(w, entries, s.loc); err != nil {
		s.logger.Error().Err(err).Msg("write attempts export")
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.adminKey == "" {
		return false
	}
	key := r.Header.Get("X-API-Key")
	if key == "" {
		key = r.URL.Query().Get("key")
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) == 1
}
