/*
handlers_test.go - HTTP-level tests for the depreciation API

Exercises the full request path: routing, validation, engine calls, error
mapping, and JSON shapes. Backed by the in-memory store.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/asset-ledger/depreciation"
	"github.com/warp/asset-ledger/depreciation/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (http.Handler, *Handler, *store.TxMemory) {
	t.Helper()
	mem := store.NewTxMemory()
	h := NewHandler(mem, zerolog.Nop())
	h.now = func() depreciation.Date { return depreciation.NewDate(2024, time.June, 1) }
	return NewRouter(h), h, mem
}

func seedAsset(t *testing.T, mem *store.TxMemory) depreciation.Asset {
	t.Helper()
	a := depreciation.Asset{
		ID:               depreciation.NewAssetID(),
		Name:             "Office Printer",
		AcquisitionValue: decimal.RequireFromString("1200000"),
		UsefulLifeMonths: 12,
		PurchaseDate:     depreciation.NewDate(2024, time.January, 15),
		Status:           depreciation.StatusActive,
		CreatedAt:        depreciation.NewDate(2024, time.January, 15),
	}
	require.NoError(t, mem.SaveAsset(context.Background(), a))
	return a
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), "body: %s", rec.Body.String())
	return out
}

// =============================================================================
// ASSET ENDPOINT TESTS
// =============================================================================

func TestCreateAsset_Success(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/assets", CreateAssetRequest{
		Name:             "Delivery Van",
		AcquisitionValue: "3500000",
		UsefulLifeMonths: 60,
		PurchaseDate:     "2024-03-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	dto := decode[AssetDTO](t, rec)
	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "Delivery Van", dto.Name)
	assert.Equal(t, "3500000", dto.AcquisitionValue)
	assert.Equal(t, 60, dto.UsefulLifeMonths)
	assert.Equal(t, "2024-03-31", dto.PurchaseDate)
	assert.Equal(t, "active", dto.Status)
}

func TestCreateAsset_ValidationFailures(t *testing.T) {
	router, _, _ := newTestServer(t)

	cases := []struct {
		name string
		req  CreateAssetRequest
	}{
		{"missing name", CreateAssetRequest{AcquisitionValue: "1000", UsefulLifeMonths: 12, PurchaseDate: "2024-01-15"}},
		{"zero life", CreateAssetRequest{Name: "X", AcquisitionValue: "1000", UsefulLifeMonths: 0, PurchaseDate: "2024-01-15"}},
		{"bad decimal", CreateAssetRequest{Name: "X", AcquisitionValue: "not-a-number", UsefulLifeMonths: 12, PurchaseDate: "2024-01-15"}},
		{"bad date", CreateAssetRequest{Name: "X", AcquisitionValue: "1000", UsefulLifeMonths: 12, PurchaseDate: "15/01/2024"}},
	}
	for _, c := range cases {
		rec := doJSON(t, router, http.MethodPost, "/api/assets", c.req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s: %s", c.name, rec.Body.String())
	}
}

func TestGetAsset_NotFound(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/assets/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAsset_StatusChange(t *testing.T) {
	router, _, mem := newTestServer(t)
	a := seedAsset(t, mem)

	status := "disposed"
	rec := doJSON(t, router, http.MethodPatch, "/api/assets/"+string(a.ID), UpdateAssetRequest{Status: &status})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[AssetDTO](t, rec)
	assert.Equal(t, "disposed", dto.Status)

	// A disposed asset refuses manual generation.
	rec = doJSON(t, router, http.MethodPost, "/api/assets/"+string(a.ID)+"/depreciation/generate", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDisposeAsset(t *testing.T) {
	router, _, mem := newTestServer(t)
	a := seedAsset(t, mem)

	rec := doJSON(t, router, http.MethodPost, "/api/assets/"+string(a.ID)+"/dispose", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[AssetDTO](t, rec)
	assert.Equal(t, "disposed", dto.Status)

	// Out of every generation path from here on.
	rec = doJSON(t, router, http.MethodPost, "/api/assets/"+string(a.ID)+"/depreciation/catch-up?as_of=2024-12-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDisposeAsset_Unknown(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/assets/nope/dispose", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAsset_RejectsUnknownStatus(t *testing.T) {
	router, _, mem := newTestServer(t)
	a := seedAsset(t, mem)

	status := "vaporized"
	rec := doJSON(t, router, http.MethodPatch, "/api/assets/"+string(a.ID), UpdateAssetRequest{Status: &status})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// GENERATION ENDPOINT TESTS
// =============================================================================

func TestGenerate_FirstEntry(t *testing.T) {
	router, _, mem := newTestServer(t)
	a := seedAsset(t, mem)

	rec := doJSON(t, router, http.MethodPost, "/api/assets/"+string(a.ID)+"/depreciation/generate", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	dto := decode[EntryDTO](t, rec)
	assert.Equal(t, 1, dto.Sequence)
	assert.Equal(t, "100000", dto.Amount)
	assert.Equal(t, "1100000", dto.BookValue)
	assert.Equal(t, "2024-02-15", dto.PeriodDate)
}

func TestGenerate_PastUsefulLife_Conflict(t *testing.T) {
	router, _, mem := newTestServer(t)
	a := seedAsset(t, mem)

	path := "/api/assets/" + string(a.ID) + "/depreciation"
	rec := doJSON(t, router, http.MethodPost, path+"/until-zero", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, path+"/generate", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCatchUp_WithAsOf(t *testing.T) {
	router, _, mem := newTestServer(t)
	a := seedAsset(t, mem)

	path := fmt.Sprintf("/api/assets/%s/depreciation/catch-up?as_of=2024-04-20", a.ID)
	rec := doJSON(t, router, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[BatchResultDTO](t, rec)
	assert.Equal(t, 3, dto.Processed)
	assert.Equal(t, "caught_up", dto.Reason)
	assert.Empty(t, dto.Error)
}

func TestCatchUp_ExhaustedAsset_ZeroProcessed(t *testing.T) {
	// An already fully depreciated asset is not an error for bulk
	// endpoints, just an empty run.

	router, _, mem := newTestServer(t)
	a := seedAsset(t, mem)

	path := "/api/assets/" + string(a.ID) + "/depreciation"
	rec := doJSON(t, router, http.MethodPost, path+"/until-zero", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, path+"/catch-up?as_of=2030-01-15", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[BatchResultDTO](t, rec)
	assert.Equal(t, 0, dto.Processed)
}

func TestGenerateN_BoundsEnforced(t *testing.T) {
	router, _, mem := newTestServer(t)
	a := seedAsset(t, mem)

	path := "/api/assets/" + string(a.ID) + "/depreciation/generate-n"

	rec := doJSON(t, router, http.MethodPost, path, GenerateNRequest{Periods: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, path, GenerateNRequest{Periods: 61})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, path, GenerateNRequest{Periods: 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[BatchResultDTO](t, rec)
	assert.Equal(t, 5, dto.Processed)
	assert.Equal(t, "count_reached", dto.Reason)
}

func TestUntilValue_Flow(t *testing.T) {
	router, _, mem := newTestServer(t)
	a := seedAsset(t, mem)

	path := "/api/assets/" + string(a.ID) + "/depreciation/until-value"

	// Target at the current book value is rejected.
	rec := doJSON(t, router, http.MethodPost, path, UntilValueRequest{TargetValue: "1200000"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, path, UntilValueRequest{TargetValue: "850000"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[BatchResultDTO](t, rec)
	assert.Equal(t, 4, dto.Processed)
	assert.Equal(t, "target_reached", dto.Reason)
}

func TestReset_RemovesEntries(t *testing.T) {
	router, _, mem := newTestServer(t)
	a := seedAsset(t, mem)

	path := "/api/assets/" + string(a.ID) + "/depreciation"
	rec := doJSON(t, router, http.MethodPost, path+"/generate-n", GenerateNRequest{Periods: 4})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, path+"/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[ResetResultDTO](t, rec)
	assert.Equal(t, 4, dto.Removed)

	rec = doJSON(t, router, http.MethodGet, path+"/entries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]EntryDTO](t, rec))
}

// =============================================================================
// PROJECTION ENDPOINT TESTS
// =============================================================================

func TestStatus_ExposesBothGates(t *testing.T) {
	router, _, mem := newTestServer(t)
	a := seedAsset(t, mem)

	path := fmt.Sprintf("/api/assets/%s/depreciation/status?as_of=2024-04-20", a.ID)
	rec := doJSON(t, router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[StatusDTO](t, rec)
	assert.True(t, dto.CanGenerateManual)
	assert.Equal(t, 3, dto.PendingPeriods)
	assert.True(t, dto.DueNow)
	assert.Equal(t, "1200000", dto.CurrentValue)
	require.NotNil(t, dto.NextPeriodDate)
	assert.Equal(t, "2024-02-15", *dto.NextPeriodDate)
}

func TestPreview_IndependentOfLedger(t *testing.T) {
	router, _, mem := newTestServer(t)
	a := seedAsset(t, mem)

	path := fmt.Sprintf("/api/assets/%s/depreciation/preview?as_of=2024-07-20", a.ID)
	rec := doJSON(t, router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[PreviewDTO](t, rec)
	assert.Equal(t, 6, dto.ExpectedPeriods)
	assert.Equal(t, "600000", dto.ProjectedDepreciation)
	assert.Equal(t, "600000", dto.ProjectedBookValue)
	assert.Equal(t, "50", dto.CompletionPercent)
}

func TestSchedule_FullPlan(t *testing.T) {
	router, _, mem := newTestServer(t)
	a := seedAsset(t, mem)

	rec := doJSON(t, router, http.MethodGet, "/api/assets/"+string(a.ID)+"/depreciation/schedule", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dtos := decode[[]SchedulePeriodDTO](t, rec)
	require.Len(t, dtos, 12)
	assert.Equal(t, 1, dtos[0].Sequence)
	assert.Equal(t, "2024-02-15", dtos[0].PeriodDate)
	assert.Equal(t, "0", dtos[11].BookValue)
}

func TestSummary_AfterPartialDepreciation(t *testing.T) {
	router, _, mem := newTestServer(t)
	a := seedAsset(t, mem)

	path := "/api/assets/" + string(a.ID) + "/depreciation"
	rec := doJSON(t, router, http.MethodPost, path+"/generate-n", GenerateNRequest{Periods: 3})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, path+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[SummaryDTO](t, rec)
	assert.Equal(t, "300000", dto.AccumulatedDepreciation)
	assert.Equal(t, "900000", dto.CurrentValue)
	assert.Equal(t, 3, dto.DepreciatedPeriods)
	assert.Equal(t, 9, dto.RemainingPeriods)
	assert.Equal(t, "25", dto.CompletionPercent)
}

// =============================================================================
// SYSTEM RUN ENDPOINT TESTS
// =============================================================================

func TestRunAll_AggregatesAcrossAssets(t *testing.T) {
	router, _, mem := newTestServer(t)
	seedAsset(t, mem)

	second := depreciation.Asset{
		ID:               depreciation.NewAssetID(),
		Name:             "Forklift",
		AcquisitionValue: decimal.RequireFromString("600000"),
		UsefulLifeMonths: 6,
		PurchaseDate:     depreciation.NewDate(2024, time.February, 10),
		Status:           depreciation.StatusActive,
		CreatedAt:        depreciation.NewDate(2024, time.February, 10),
	}
	require.NoError(t, mem.SaveAsset(context.Background(), second))

	rec := doJSON(t, router, http.MethodPost, "/api/depreciation/run?as_of=2024-04-20", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[RunAllDTO](t, rec)
	assert.Equal(t, 5, dto.TotalProcessed)
	assert.Equal(t, 2, dto.AssetsTouched)
	assert.Len(t, dto.Results, 2)
}
