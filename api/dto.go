/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation (validator struct tags)
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY FIELDS:
  All decimal amounts are serialized as strings ("100000.00") so clients
  never see binary floating point artifacts.

VALIDATION:
  Request types carry go-playground/validator tags; handlers run the
  shared validator instance before touching the engine. The generate-n
  1..60 bound lives here, at the boundary; the engine separately refuses
  to pass the useful life regardless.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/asset-ledger/depreciation"
)

// =============================================================================
// ASSET TYPES
// =============================================================================

// AssetDTO represents an asset in API responses.
type AssetDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	AcquisitionValue string `json:"acquisition_value"`
	UsefulLifeMonths int    `json:"useful_life_months"`
	PurchaseDate     string `json:"purchase_date"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at,omitempty"`
}

func toAssetDTO(a depreciation.Asset) AssetDTO {
	return AssetDTO{
		ID:               string(a.ID),
		Name:             a.Name,
		AcquisitionValue: a.AcquisitionValue.String(),
		UsefulLifeMonths: a.UsefulLifeMonths,
		PurchaseDate:     a.PurchaseDate.String(),
		Status:           string(a.Status),
		CreatedAt:        a.CreatedAt.String(),
	}
}

// CreateAssetRequest is the request to register an asset.
type CreateAssetRequest struct {
	Name             string `json:"name" validate:"required"`
	AcquisitionValue string `json:"acquisition_value" validate:"required"`
	UsefulLifeMonths int    `json:"useful_life_months" validate:"required,min=1"`
	PurchaseDate     string `json:"purchase_date" validate:"required"`
}

// UpdateAssetRequest updates the critical depreciation fields. Recorded
// entries are NOT recomputed; the reset endpoint exists for that.
type UpdateAssetRequest struct {
	Name             *string `json:"name,omitempty"`
	AcquisitionValue *string `json:"acquisition_value,omitempty"`
	UsefulLifeMonths *int    `json:"useful_life_months,omitempty" validate:"omitempty,min=1"`
	PurchaseDate     *string `json:"purchase_date,omitempty"`
	Status           *string `json:"status,omitempty" validate:"omitempty,oneof=active in_repair disposed lost sold"`
}

// =============================================================================
// LEDGER TYPES
// =============================================================================

// EntryDTO represents one recorded depreciation period.
type EntryDTO struct {
	ID         string `json:"id"`
	AssetID    string `json:"asset_id"`
	Sequence   int    `json:"sequence"`
	Amount     string `json:"amount"`
	Cumulative string `json:"cumulative"`
	BookValue  string `json:"book_value"`
	PeriodDate string `json:"period_date"`
	CreatedAt  string `json:"created_at"`
}

func toEntryDTO(e depreciation.Entry) EntryDTO {
	return EntryDTO{
		ID:         string(e.ID),
		AssetID:    string(e.AssetID),
		Sequence:   e.Sequence,
		Amount:     e.Amount.String(),
		Cumulative: e.Cumulative.String(),
		BookValue:  e.BookValue.String(),
		PeriodDate: e.PeriodDate.String(),
		CreatedAt:  e.CreatedAt.String(),
	}
}

// SummaryDTO is the headline depreciation state.
type SummaryDTO struct {
	AssetID                 string  `json:"asset_id"`
	MonthlyDepreciation     string  `json:"monthly_depreciation"`
	AccumulatedDepreciation string  `json:"accumulated_depreciation"`
	CurrentValue            string  `json:"current_value"`
	DepreciatedPeriods      int     `json:"depreciated_periods"`
	RemainingPeriods        int     `json:"remaining_periods"`
	NextPeriodDate          *string `json:"next_period_date,omitempty"`
	CompletionPercent       string  `json:"completion_percent"`
	IsDepreciable           bool    `json:"is_depreciable"`
}

func toSummaryDTO(s depreciation.Summary) SummaryDTO {
	dto := SummaryDTO{
		AssetID:                 string(s.AssetID),
		MonthlyDepreciation:     s.MonthlyDepreciation.String(),
		AccumulatedDepreciation: s.AccumulatedDepreciation.String(),
		CurrentValue:            s.CurrentValue.String(),
		DepreciatedPeriods:      s.DepreciatedPeriods,
		RemainingPeriods:        s.RemainingPeriods,
		CompletionPercent:       s.CompletionPercent.String(),
		IsDepreciable:           s.IsDepreciable,
	}
	if s.NextPeriodDate != nil {
		d := s.NextPeriodDate.String()
		dto.NextPeriodDate = &d
	}
	return dto
}

// StatusDTO is SummaryDTO plus the two advancement gates.
type StatusDTO struct {
	SummaryDTO
	CanGenerateManual bool `json:"can_generate_manual"`
	PendingPeriods    int  `json:"pending_periods"`
	DueNow            bool `json:"due_now"`
}

// PreviewDTO shows as-of-today figures independent of recorded entries.
type PreviewDTO struct {
	AssetID               string `json:"asset_id"`
	AsOf                  string `json:"as_of"`
	ElapsedMonths         int    `json:"elapsed_months"`
	ExpectedPeriods       int    `json:"expected_periods"`
	ProjectedDepreciation string `json:"projected_depreciation"`
	ProjectedBookValue    string `json:"projected_book_value"`
	CompletionPercent     string `json:"completion_percent"`
}

// SchedulePeriodDTO is one projected future period.
type SchedulePeriodDTO struct {
	Sequence   int    `json:"sequence"`
	PeriodDate string `json:"period_date"`
	Amount     string `json:"amount"`
	Cumulative string `json:"cumulative"`
	BookValue  string `json:"book_value"`
}

// =============================================================================
// GENERATION TYPES
// =============================================================================

// GenerateNRequest asks for up to N periods in one call.
type GenerateNRequest struct {
	Periods int `json:"periods" validate:"required,min=1,max=60"`
}

// UntilValueRequest asks for periods until book value reaches the target.
type UntilValueRequest struct {
	TargetValue string `json:"target_value" validate:"required"`
}

// BatchResultDTO reports a bulk generation run. Partial progress is
// retained, so processed can be non-zero even when the run stopped early.
type BatchResultDTO struct {
	AssetID   string `json:"asset_id"`
	Processed int    `json:"processed"`
	Reason    string `json:"reason"`
	Error     string `json:"error,omitempty"`
}

func toBatchResultDTO(b depreciation.BatchResult) BatchResultDTO {
	dto := BatchResultDTO{
		AssetID:   string(b.AssetID),
		Processed: b.Processed,
		Reason:    string(b.Reason),
	}
	if b.Err != nil {
		dto.Error = b.Err.Error()
	}
	return dto
}

// RunAllDTO aggregates the system-wide catch-up.
type RunAllDTO struct {
	TotalProcessed int              `json:"total_processed"`
	AssetsTouched  int              `json:"assets_touched"`
	Results        []BatchResultDTO `json:"results"`
}

// ResetResultDTO reports how many entries a reset removed.
type ResetResultDTO struct {
	AssetID string `json:"asset_id"`
	Removed int    `json:"removed"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
