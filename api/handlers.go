/*
handlers.go - HTTP API handlers for the depreciation ledger

PURPOSE:
  Exposes the depreciation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Assets:
    GET    /api/assets                 List all assets
    POST   /api/assets                 Register an asset
    GET    /api/assets/{id}            Get asset details
    PATCH  /api/assets/{id}            Update asset fields

  Depreciation (per asset):
    GET    /api/assets/{id}/depreciation/summary    Headline figures
    GET    /api/assets/{id}/depreciation/status     Summary + advancement gates
    GET    /api/assets/{id}/depreciation/preview    As-of-today projection
    GET    /api/assets/{id}/depreciation/schedule   Remaining period plan
    GET    /api/assets/{id}/depreciation/entries    Recorded ledger
    POST   /api/assets/{id}/depreciation/generate   Record next period (manual)
    POST   /api/assets/{id}/depreciation/catch-up   Record all overdue periods
    POST   /api/assets/{id}/depreciation/generate-n Record up to N periods
    POST   /api/assets/{id}/depreciation/until-zero Depreciate to zero
    POST   /api/assets/{id}/depreciation/until-value Depreciate to a target
    POST   /api/assets/{id}/depreciation/reset      Clear the ledger

  System:
    POST   /api/depreciation/run       Catch up every eligible asset

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (go-playground/validator on request DTOs)
  3. Call domain logic (engine, projections)
  4. Serialize response
  5. Map errors to HTTP status

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid targets, misconfigured assets
  - 404: Asset not found
  - 409: Period already recorded, useful life exhausted (manual generate)
  - 500: Internal errors

  Bulk endpoints never 409: an already-complete ledger is reported as a
  zero-processed result with a stop reason, not an error.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/asset-ledger/depreciation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *depreciation.Engine
	Store  depreciation.TxStore

	validate *validator.Validate
	log      zerolog.Logger

	// now supplies the reference date for calendar-gated operations.
	// Tests override it; production uses the wall clock.
	now func() depreciation.Date
}

// NewHandler creates a new handler backed by the given store.
func NewHandler(store depreciation.TxStore, log zerolog.Logger) *Handler {
	return &Handler{
		Engine:   depreciation.NewEngine(store),
		Store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
		now:      func() depreciation.Date { return depreciation.DateOf(time.Now()) },
	}
}

// today resolves the reference date, honoring an optional ?as_of=YYYY-MM-DD
// query parameter so callers can replay history or test future dates.
func (h *Handler) today(r *http.Request) (depreciation.Date, error) {
	if asOf := r.URL.Query().Get("as_of"); asOf != "" {
		return depreciation.ParseDate(asOf)
	}
	return h.now(), nil
}

// =============================================================================
// ASSET HANDLERS
// =============================================================================

// ListAssets returns all registered assets.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Store.ListAssets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assets", err)
		return
	}

	dtos := make([]AssetDTO, len(assets))
	for i, a := range assets {
		dtos[i] = toAssetDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAsset returns a single asset.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.GetAsset(r.Context(), depreciation.AssetID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetDTO(*a))
}

// CreateAsset registers a new asset.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	value, err := decimal.NewFromString(req.AcquisitionValue)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid acquisition_value", err)
		return
	}
	purchase, err := depreciation.ParseDate(req.PurchaseDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid purchase_date format (use YYYY-MM-DD)", err)
		return
	}

	a := depreciation.Asset{
		ID:               depreciation.NewAssetID(),
		Name:             req.Name,
		AcquisitionValue: value,
		UsefulLifeMonths: req.UsefulLifeMonths,
		PurchaseDate:     purchase,
		Status:           depreciation.StatusActive,
		CreatedAt:        h.now(),
	}
	if err := a.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid asset configuration", err)
		return
	}

	if err := h.Store.SaveAsset(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create asset", err)
		return
	}

	h.log.Info().Str("asset_id", string(a.ID)).Str("name", a.Name).Msg("asset registered")
	writeJSON(w, http.StatusCreated, toAssetDTO(a))
}

// UpdateAsset applies partial updates to an asset. Recorded entries are
// left untouched; callers who change the value or life should reset and
// regenerate when they want the ledger recomputed.
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	var req UpdateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	ctx := r.Context()
	a, err := h.Store.GetAsset(ctx, depreciation.AssetID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	critical := req.AcquisitionValue != nil || req.UsefulLifeMonths != nil || req.PurchaseDate != nil
	if critical {
		if last, err := h.Store.LastEntry(ctx, a.ID); err == nil && last != nil {
			h.log.Warn().
				Str("asset_id", string(a.ID)).
				Int("recorded_entries", last.Sequence).
				Msg("critical field edit on an asset with recorded entries; existing entries are not recomputed")
		}
	}

	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.AcquisitionValue != nil {
		value, err := decimal.NewFromString(*req.AcquisitionValue)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid acquisition_value", err)
			return
		}
		a.AcquisitionValue = value
	}
	if req.UsefulLifeMonths != nil {
		a.UsefulLifeMonths = *req.UsefulLifeMonths
	}
	if req.PurchaseDate != nil {
		purchase, err := depreciation.ParseDate(*req.PurchaseDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid purchase_date format (use YYYY-MM-DD)", err)
			return
		}
		a.PurchaseDate = purchase
	}
	if req.Status != nil {
		a.Status = depreciation.Status(*req.Status)
	}
	if err := a.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid asset configuration", err)
		return
	}

	if err := h.Store.SaveAsset(ctx, *a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update asset", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetDTO(*a))
}

// DisposeAsset marks an asset disposed, taking it out of every generation
// path while keeping its recorded ledger intact.
func (h *Handler) DisposeAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := h.Store.GetAsset(ctx, depreciation.AssetID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	a.Status = depreciation.StatusDisposed
	if err := h.Store.SaveAsset(ctx, *a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update asset", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetDTO(*a))
}

// =============================================================================
// PROJECTION HANDLERS
// =============================================================================

// GetSummary returns the headline depreciation figures.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.Engine.Summary(r.Context(), depreciation.AssetID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(*s))
}

// GetStatus returns the summary plus the manual and calendar gates.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}

	s, err := h.Engine.Status(r.Context(), depreciation.AssetID(chi.URLParam(r, "id")), today)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusDTO{
		SummaryDTO:        toSummaryDTO(s.Summary),
		CanGenerateManual: s.CanGenerateManual,
		PendingPeriods:    s.PendingPeriods,
		DueNow:            s.DueNow,
	})
}

// GetPreview returns the as-of-today projection computed from elapsed
// time alone, independent of what the ledger has recorded.
func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}

	p, err := h.Engine.Preview(r.Context(), depreciation.AssetID(chi.URLParam(r, "id")), today)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PreviewDTO{
		AssetID:               string(p.AssetID),
		AsOf:                  p.AsOf.String(),
		ElapsedMonths:         p.ElapsedMonths,
		ExpectedPeriods:       p.ExpectedPeriods,
		ProjectedDepreciation: p.ProjectedDepreciation.String(),
		ProjectedBookValue:    p.ProjectedBookValue.String(),
		CompletionPercent:     p.CompletionPercent.String(),
	})
}

// GetSchedule returns the projected remaining periods.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.Engine.Schedule(r.Context(), depreciation.AssetID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	dtos := make([]SchedulePeriodDTO, len(schedule))
	for i, p := range schedule {
		dtos[i] = SchedulePeriodDTO{
			Sequence:   p.Sequence,
			PeriodDate: p.PeriodDate.String(),
			Amount:     p.Amount.String(),
			Cumulative: p.Cumulative.String(),
			BookValue:  p.BookValue.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListEntries returns the recorded ledger, ascending by sequence.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := depreciation.AssetID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetAsset(ctx, id); err != nil {
		h.writeEngineError(w, err)
		return
	}
	entries, err := h.Store.Entries(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load entries", err)
		return
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// GENERATION HANDLERS
// =============================================================================

// Generate records the next period. Manual rule: the calendar is not
// consulted, only eligibility and remaining life.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}

	id := depreciation.AssetID(chi.URLParam(r, "id"))
	entry, err := h.Engine.GenerateNext(r.Context(), id, today)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.log.Info().
		Str("asset_id", string(id)).
		Int("sequence", entry.Sequence).
		Str("amount", entry.Amount.String()).
		Msg("depreciation recorded")
	writeJSON(w, http.StatusCreated, toEntryDTO(*entry))
}

// CatchUp records every calendar-due period that is still missing.
func (h *Handler) CatchUp(w http.ResponseWriter, r *http.Request) {
	h.runBatch(w, r, func(id depreciation.AssetID, today depreciation.Date) (*depreciation.BatchResult, error) {
		return h.Engine.CatchUp(r.Context(), id, today)
	})
}

// GenerateN records up to N periods regardless of the calendar.
func (h *Handler) GenerateN(w http.ResponseWriter, r *http.Request) {
	var req GenerateNRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	h.runBatch(w, r, func(id depreciation.AssetID, today depreciation.Date) (*depreciation.BatchResult, error) {
		return h.Engine.GenerateN(r.Context(), id, req.Periods, today)
	})
}

// UntilZero records periods until the book value reaches zero.
func (h *Handler) UntilZero(w http.ResponseWriter, r *http.Request) {
	h.runBatch(w, r, func(id depreciation.AssetID, today depreciation.Date) (*depreciation.BatchResult, error) {
		return h.Engine.UntilZero(r.Context(), id, today)
	})
}

// UntilValue records periods until the book value is at or below the
// requested target.
func (h *Handler) UntilValue(w http.ResponseWriter, r *http.Request) {
	var req UntilValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}
	target, err := decimal.NewFromString(req.TargetValue)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid target_value", err)
		return
	}

	h.runBatch(w, r, func(id depreciation.AssetID, today depreciation.Date) (*depreciation.BatchResult, error) {
		return h.Engine.UntilValue(r.Context(), id, target, today)
	})
}

// runBatch shares the date resolution, error mapping, and result shaping
// of the bulk generation endpoints.
func (h *Handler) runBatch(w http.ResponseWriter, r *http.Request, run func(depreciation.AssetID, depreciation.Date) (*depreciation.BatchResult, error)) {
	today, err := h.today(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}

	id := depreciation.AssetID(chi.URLParam(r, "id"))
	result, err := run(id, today)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.log.Info().
		Str("asset_id", string(id)).
		Int("processed", result.Processed).
		Str("reason", string(result.Reason)).
		Msg("bulk depreciation run")
	writeJSON(w, http.StatusOK, toBatchResultDTO(*result))
}

// ResetLedger removes every recorded entry for the asset.
func (h *Handler) ResetLedger(w http.ResponseWriter, r *http.Request) {
	id := depreciation.AssetID(chi.URLParam(r, "id"))
	removed, err := h.Engine.Reset(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.log.Info().Str("asset_id", string(id)).Int("removed", removed).Msg("ledger reset")
	writeJSON(w, http.StatusOK, ResetResultDTO{AssetID: string(id), Removed: removed})
}

// RunAll catches up every eligible asset in one pass. Per-asset failures
// are reported in the results, never aborting the run.
func (h *Handler) RunAll(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}

	result, err := h.Engine.RunAll(r.Context(), today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Depreciation run failed", err)
		return
	}

	dto := RunAllDTO{
		TotalProcessed: result.TotalProcessed,
		AssetsTouched:  result.AssetsTouched,
		Results:        make([]BatchResultDTO, len(result.Results)),
	}
	for i, b := range result.Results {
		dto.Results[i] = toBatchResultDTO(b)
	}

	h.log.Info().
		Int("total_processed", result.TotalProcessed).
		Int("assets_touched", result.AssetsTouched).
		Msg("system depreciation run")
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeEngineError maps domain errors to HTTP status codes.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, depreciation.ErrAssetNotFound):
		writeError(w, http.StatusNotFound, "Asset not found", err)
	case errors.Is(err, depreciation.ErrDuplicatePeriod):
		writeError(w, http.StatusConflict, "Period already recorded", err)
	case errors.Is(err, depreciation.ErrUsefulLifeExhausted):
		writeError(w, http.StatusConflict, "Useful life exhausted", err)
	case errors.Is(err, depreciation.ErrSequenceConflict):
		writeError(w, http.StatusConflict, "Ledger sequence conflict", err)
	case depreciation.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		h.log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
