package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Hearth-Ledger-Club/hearth-bot/app/events"
	pointsdomain "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/domain"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
	"github.com/Hearth-Ledger-Club/hearth-bot/internal/dates"
)

// maxImportBytes caps catalog spreadsheet uploads.
const maxImportBytes = 8 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type submitRequest struct {
	DateText   string                     `json:"date_text"`
	Activities []sharedtypes.ActivityName `json:"activities"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	payload := events.ActivitySubmissionRequestedPayloadV1{
		HouseholdID: principal.HouseholdID,
		Identity:    principal.Identity,
		DateText:    req.DateText,
		Activities:  req.Activities,
	}

	result, err := s.ledger.SubmitActivities(r.Context(), payload, time.Now())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Submission failed",
			attr.Identity("identity", principal.Identity),
			attr.Error(err),
		)
		http.Error(w, "submission failed", http.StatusInternalServerError)
		return
	}

	if result.Failure != nil {
		writeJSON(w, http.StatusUnprocessableEntity, result.Failure)
		return
	}

	// Best-effort: downstream consumers (digest scheduling, summary cache
	// eviction) react to processed submissions regardless of entry point.
	if msg, err := s.helpers.CreateResultMessage(nil, *result.Success, events.ActivitySubmissionProcessedV1); err == nil {
		if err := s.eventBus.Publish(events.ActivitySubmissionProcessedV1, msg); err != nil {
			s.logger.WarnContext(r.Context(), "Failed to publish processed submission event", attr.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, result.Success)
}

func (s *Server) handleWeeklySummary(w http.ResponseWriter, r *http.Request) {
	s.writeWeekSummary(w, r, false)
}

func (s *Server) handlePreviousWeekSummary(w http.ResponseWriter, r *http.Request) {
	s.writeWeekSummary(w, r, true)
}

func (s *Server) writeWeekSummary(w http.ResponseWriter, r *http.Request, previous bool) {
	principal, _ := principalFrom(r.Context())

	ref := time.Now()
	if q := r.URL.Query().Get("ref"); q != "" {
		parsed, err := dates.ParseYMD(q)
		if err != nil {
			http.Error(w, "ref must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		ref = parsed
	}

	identities, err := s.memberIdentities(r, principal)
	if err != nil {
		http.Error(w, "failed to resolve household", http.StatusInternalServerError)
		return
	}

	totals := s.summary.WeeklyTotals
	if previous {
		totals = s.summary.PreviousWeekTotals
	}

	summary, err := totals(r.Context(), identities, ref)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Summary aggregation failed", attr.Error(err))
		http.Error(w, "aggregation failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleLifetimeCounts(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	identities, err := s.memberIdentities(r, principal)
	if err != nil {
		http.Error(w, "failed to resolve household", http.StatusInternalServerError)
		return
	}

	counts, err := s.summary.LifetimeCounts(r.Context(), identities)
	if err != nil {
		http.Error(w, "aggregation failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleStreaks(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	result, err := s.streaks.ComputeHouseholdStreaks(r.Context(), principal.HouseholdID, time.Now())
	if err != nil {
		http.Error(w, "streak computation failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result.States())
}

func (s *Server) handleGetStreakSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.points.GetSettings(r.Context())
	if err != nil {
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutStreakSettings(w http.ResponseWriter, r *http.Request) {
	var settings pointsdomain.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.points.UpdateSettings(r.Context(), settings); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleCatalogImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty upload", http.StatusBadRequest)
		return
	}

	count, err := s.catalog.ImportSheet(r.Context(), data)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Catalog import failed", attr.Error(err))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	payload := events.CatalogImportedPayloadV1{Definitions: count, Source: "api"}
	if msg, err := s.helpers.CreateResultMessage(nil, payload, events.CatalogImportedV1); err == nil {
		if err := s.eventBus.Publish(events.CatalogImportedV1, msg); err != nil {
			s.logger.WarnContext(r.Context(), "Failed to publish catalog import event", attr.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, map[string]int{"definitions": count})
}

type digestRequest struct {
	Reference string `json:"reference"`
}

func (s *Server) handleScheduleDigest(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	var req digestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Reference == "" {
		req.Reference = dates.YMD(time.Now())
	} else if _, err := dates.ParseYMD(req.Reference); err != nil {
		http.Error(w, "reference must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	if err := s.queue.ScheduleWeeklyDigest(r.Context(), principal.HouseholdID, req.Reference, time.Now()); err != nil {
		http.Error(w, "failed to schedule digest", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"reference": req.Reference})
}

func (s *Server) handleClearLedger(w http.ResponseWriter, r *http.Request) {
	n, err := s.ledger.ClearLedger(r.Context())
	if err != nil {
		http.Error(w, "failed to clear ledger", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"rows_deleted": n})
}

// memberIdentities resolves the principal's household members, falling back
// to the principal alone when the household is unknown.
func (s *Server) memberIdentities(r *http.Request, principal *Principal) ([]sharedtypes.Identity, error) {
	if principal.HouseholdID == "" {
		return []sharedtypes.Identity{principal.Identity}, nil
	}

	members, err := s.household.GetMemberIdentities(r.Context(), nil, principal.HouseholdID.String())
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []sharedtypes.Identity{principal.Identity}, nil
	}

	identities := make([]sharedtypes.Identity, len(members))
	for i, m := range members {
		identities[i] = sharedtypes.Identity(m)
	}

	// Stale membership records may omit the requester; keep their own
	// entries visible regardless.
	for _, id := range identities {
		if id.Equal(principal.Identity) {
			return identities, nil
		}
	}
	return append(identities, principal.Identity), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
