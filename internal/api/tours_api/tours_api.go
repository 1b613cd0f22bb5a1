package tours_api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/TourBox/internal/calendar"
	"github.com/BearBump/TourBox/internal/models"
	"github.com/BearBump/TourBox/internal/services/tours"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

const maxBodyBytes = 1 << 20

type ToursAPI struct {
	svc   *tours.Service
	clock calendar.Clock
}

func New(svc *tours.Service) *ToursAPI {
	return &ToursAPI{svc: svc, clock: svc.Engine().Clock()}
}

// Register mounts the JSON endpoints under /api.
func (a *ToursAPI) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/day", a.getDay)
		r.Put("/lists", a.putList)
		r.Put("/customers", a.putCustomer)

		r.Route("/customers/{id}", func(r chi.Router) {
			r.Get("/occurrences", a.getOccurrences)
			r.Get("/status", a.getStatus)
			r.Get("/has", a.getHas)

			r.Post("/intervals", a.postInterval)
			r.Post("/shifts", a.postShift)
			r.Delete("/shifts", a.deleteShift)
			r.Post("/deletions", a.postDeletion)
			r.Delete("/deletions", a.deleteDeletion)
			r.Post("/completions", a.postCompletion)
			r.Delete("/completions", a.deleteCompletion)
			r.Put("/vacation", a.putVacation)
		})
	})
}

func (a *ToursAPI) Handler() http.Handler {
	r := chi.NewRouter()
	a.Register(r)
	return r
}

func (a *ToursAPI) getDay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	viewed, err := a.optionalDate(q.Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	var expanded []string
	for _, v := range q["expanded"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				expanded = append(expanded, id)
			}
		}
	}
	items, err := a.svc.DayView(r.Context(), viewed, expanded)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *ToursAPI) getOccurrences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := a.optionalDate(q.Get("from"))
	if err != nil {
		writeError(w, err)
		return
	}
	days := 0
	if v := q.Get("days"); v != "" {
		if days, err = strconv.Atoi(v); err != nil {
			writeError(w, models.Invalid("days must be a number"))
			return
		}
	}
	occ, err := a.svc.CustomerOccurrences(r.Context(), chi.URLParam(r, "id"), from, days)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]occurrenceDTO, 0, len(occ))
	for _, o := range occ {
		out = append(out, toOccurrenceDTO(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"occurrences": out})
}

func (a *ToursAPI) getStatus(w http.ResponseWriter, r *http.Request) {
	st, err := a.svc.CustomerStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := statusDTO{CustomerID: st.CustomerID, OverdueToday: st.OverdueToday}
	if st.NextDue != nil {
		out.NextDue = calendar.Key(*st.NextDue)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *ToursAPI) getHas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := a.requiredDate(q.Get("date"), "date")
	if err != nil {
		writeError(w, err)
		return
	}
	kind := models.OperationKind(strings.ToUpper(q.Get("kind")))
	ok, err := a.svc.HasOccurrence(r.Context(), chi.URLParam(r, "id"), date, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"has": ok})
}

func (a *ToursAPI) postInterval(w http.ResponseWriter, r *http.Request) {
	var in intervalDTO
	if !decode(w, r, &in) {
		return
	}
	iv, err := in.toModel(a.clock)
	if err != nil {
		writeError(w, err)
		return
	}
	iv, err = a.svc.AddInterval(r.Context(), chi.URLParam(r, "id"), iv)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, iv)
}

func (a *ToursAPI) postShift(w http.ResponseWriter, r *http.Request) {
	var in shiftDTO
	if !decode(w, r, &in) {
		return
	}
	original, err := a.requiredDate(in.Original, "original")
	if err != nil {
		writeError(w, err)
		return
	}
	next, err := a.requiredDate(in.New, "new")
	if err != nil {
		writeError(w, err)
		return
	}
	err = a.svc.ShiftOccurrence(r.Context(), chi.URLParam(r, "id"), models.ShiftedOccurrence{
		Original:   original,
		New:        next,
		IntervalID: in.IntervalID,
		Kind:       models.OperationKind(strings.ToUpper(in.Kind)),
	})
	writeResult(w, err)
}

func (a *ToursAPI) deleteShift(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	original, err := a.requiredDate(q.Get("original"), "original")
	if err != nil {
		writeError(w, err)
		return
	}
	kind := models.OperationKind(strings.ToUpper(q.Get("kind")))
	writeResult(w, a.svc.UndoShift(r.Context(), chi.URLParam(r, "id"), original, kind, q.Get("interval_id")))
}

func (a *ToursAPI) postDeletion(w http.ResponseWriter, r *http.Request) {
	var in deletionDTO
	if !decode(w, r, &in) {
		return
	}
	date, err := a.requiredDate(in.Date, "date")
	if err != nil {
		writeError(w, err)
		return
	}
	kind := models.OperationKind(strings.ToUpper(in.Kind))
	writeResult(w, a.svc.DeleteOccurrence(r.Context(), chi.URLParam(r, "id"), date, kind))
}

func (a *ToursAPI) deleteDeletion(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := a.requiredDate(q.Get("date"), "date")
	if err != nil {
		writeError(w, err)
		return
	}
	kind := models.OperationKind(strings.ToUpper(q.Get("kind")))
	writeResult(w, a.svc.RestoreOccurrence(r.Context(), chi.URLParam(r, "id"), date, kind))
}

func (a *ToursAPI) postCompletion(w http.ResponseWriter, r *http.Request) {
	var in completionDTO
	if !decode(w, r, &in) {
		return
	}
	kind := models.OperationKind(strings.ToUpper(in.Kind))
	writeResult(w, a.svc.MarkComplete(r.Context(), chi.URLParam(r, "id"), kind, in.At))
}

func (a *ToursAPI) deleteCompletion(w http.ResponseWriter, r *http.Request) {
	kind := models.OperationKind(strings.ToUpper(r.URL.Query().Get("kind")))
	writeResult(w, a.svc.ResetCompletion(r.Context(), chi.URLParam(r, "id"), kind))
}

func (a *ToursAPI) putVacation(w http.ResponseWriter, r *http.Request) {
	var in vacationDTO
	if !decode(w, r, &in) {
		return
	}
	var v *models.Vacation
	if in.From != "" || in.To != "" {
		from, err := a.requiredDate(in.From, "from")
		if err != nil {
			writeError(w, err)
			return
		}
		to, err := a.requiredDate(in.To, "to")
		if err != nil {
			writeError(w, err)
			return
		}
		v = &models.Vacation{From: from, To: to}
	}
	writeResult(w, a.svc.SetVacation(r.Context(), chi.URLParam(r, "id"), v))
}

func (a *ToursAPI) putCustomer(w http.ResponseWriter, r *http.Request) {
	var in models.Customer
	if !decode(w, r, &in) {
		return
	}
	c, err := a.svc.SaveCustomer(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *ToursAPI) putList(w http.ResponseWriter, r *http.Request) {
	var in models.List
	if !decode(w, r, &in) {
		return
	}
	l, err := a.svc.SaveList(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (a *ToursAPI) optionalDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return a.requiredDate(s, "date")
}

func (a *ToursAPI) requiredDate(s, field string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, models.Invalid(field + " is required")
	}
	t, err := a.clock.Parse(s)
	if err != nil {
		return time.Time{}, models.Invalid(field + " must be YYYY-MM-DD")
	}
	return t, nil
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, models.Invalid("invalid json body"))
		return false
	}
	return true
}

func writeResult(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		code = http.StatusNotFound
	default:
		slog.Error("request failed", "error", err.Error())
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
