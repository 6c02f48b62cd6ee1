package http

import (
	"errors"
	"net/http"
	"strconv"

	"nomadledger/internal/log"
	"nomadledger/internal/report"
	"nomadledger/internal/services"
)

const msgInvalidRange = "Período inválido. Use datas no formato AAAA-MM-DD."

// overviewData feeds the "overview" template, shared by the dashboard page
// and the /ui/overview partial.
type overviewData struct {
	View       services.View
	Query      string
	RangeError string
}

func (d overviewData) HasExpenses() bool { return len(d.View.All) > 0 }

func (d overviewData) CanExport() bool { return len(d.View.Filtered) > 0 }

type dashboardPage struct {
	Title   string
	Account string
	overviewData
}

func (s *Server) overview(r *http.Request) (overviewData, int) {
	sess := mustSession(r)
	status := http.StatusOK
	var rangeErr string
	b, err := ParseBounds(r.URL.Query())
	if err != nil {
		status = http.StatusBadRequest
		rangeErr = msgInvalidRange
	}
	view := s.ledger.View(r.Context(), sess.UserID, b)
	return overviewData{View: view, Query: boundsQuery(b), RangeError: rangeErr}, status
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data, status := s.overview(r)
	s.render(w, r, status, "dashboard.html", dashboardPage{
		Title:        "Painel",
		Account:      mustSession(r).Email,
		overviewData: data,
	})
}

// handleOverview renders only the totals, category bars and list so the
// date filter can swap them in place.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	data, status := s.overview(r)
	s.render(w, r, status, "overview", data)
}

type exportErrorPage struct {
	Title   string
	Account string
	Message string
	Back    string
}

func (s *Server) exportHandler(f report.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := mustSession(r)
		b, err := ParseBounds(r.URL.Query())
		if err != nil {
			s.render(w, r, http.StatusBadRequest, "export_error.html", exportErrorPage{
				Title: "Exportar", Account: sess.Email, Message: msgInvalidRange, Back: "/",
			})
			return
		}

		out, err := s.ledger.Export(r.Context(), sess.UserID, sess.Email, b, f)
		if errors.Is(err, report.ErrNoExpenses) {
			s.render(w, r, http.StatusUnprocessableEntity, "export_error.html", exportErrorPage{
				Title: "Exportar", Account: sess.Email, Message: "Sem dados para exportar.", Back: "/" + boundsQuery(b),
			})
			return
		}
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Export failed",
				log.FieldError, err.Error(),
				log.FieldReportFormat, string(f))
			s.render(w, r, http.StatusInternalServerError, "export_error.html", exportErrorPage{
				Title: "Exportar", Account: sess.Email, Message: "Não foi possível gerar o relatório.", Back: "/" + boundsQuery(b),
			})
			return
		}

		w.Header().Set("Content-Type", out.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+out.Filename+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(out.Body)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out.Body)
	}
}
