// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/rollcall/internal/models"
	"github.com/tomtom215/rollcall/internal/reconciler"
	"github.com/tomtom215/rollcall/internal/validation"
)

const maxBodySize = 1 << 20 // 1MB

// MarkService records single marks. *recorder.Recorder implements it.
type MarkService interface {
	Record(ctx context.Context, ev models.MarkEvent) (*models.MarkResult, error)
	HasMarkedToday(ctx context.Context, dir models.Direction, role, person string, now time.Time) (*models.MarkStatus, error)
}

// BatchService replays snapshots. *batchsync.Synchronizer implements it.
type BatchService interface {
	Sync(ctx context.Context, snap *models.Snapshot) models.SyncStats
}

// MonthlyService reads and refreshes monthly records. *reconciler.Reconciler implements it.
type MonthlyService interface {
	Monthly(ctx context.Context, role, person string, month int, now time.Time) (*reconciler.MonthlyResult, error)
	ForceRefresh(ctx context.Context, role, person string, month int, now time.Time) (*reconciler.MonthlyResult, error)
	ListMonth(ctx context.Context, cat models.Category, dir models.Direction, month int) ([]*models.MonthlyRecord, error)
}

// Pinger reports local storage health. *store.Store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerState reports the backend circuit breaker state.
type BreakerState interface {
	State() string
}

// Handler serves the local API.
type Handler struct {
	marks     MarkService
	batches   BatchService
	monthly   MonthlyService
	store     Pinger
	breaker   BreakerState
	loc       *time.Location
	now       func() time.Time
	startTime time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithBreaker reports breaker state in /health.
func WithBreaker(b BreakerState) HandlerOption {
	return func(h *Handler) { h.breaker = b }
}

// WithLocation sets the time zone used for the default month.
func WithLocation(loc *time.Location) HandlerOption {
	return func(h *Handler) {
		if loc != nil {
			h.loc = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler creates the API handler.
func NewHandler(marks MarkService, batches BatchService, monthly MonthlyService, store Pinger, opts ...HandlerOption) *Handler {
	h := &Handler{
		marks:   marks,
		batches: batches,
		monthly: monthly,
		store:   store,
		loc:     time.Local,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.startTime = h.now()
	return h
}

// RecordMark handles POST /api/v1/marks.
func (h *Handler) RecordMark(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var ev models.MarkEvent
	if err := decodeBody(r, &ev); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&ev); verr != nil {
		rw.ValidationError(verr)
		return
	}

	res, err := h.marks.Record(r.Context(), ev)
	if err != nil {
		rw.ServiceError(err)
		return
	}
	rw.Success(res)
}

// SyncSnapshot handles POST /api/v1/sync. Per-person failures are counted
// in the stats; the response is 200 once the snapshot itself is valid.
func (h *Handler) SyncSnapshot(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var snap models.Snapshot
	if err := decodeBody(r, &snap); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if snap.Month == 0 {
		snap.Month = int(h.now().In(h.loc).Month())
	}
	if verr := validation.ValidateStruct(&snap); verr != nil {
		rw.ValidationError(verr)
		return
	}

	rw.Success(h.batches.Sync(r.Context(), &snap))
}

type personQuery struct {
	Role     string `validate:"required"`
	PersonID string `validate:"required,max=32"`
	Month    int    `validate:"min=1,max=12"`
}

func (h *Handler) parsePersonQuery(r *http.Request) (personQuery, error) {
	q := personQuery{
		Role:     chi.URLParam(r, "role"),
		PersonID: chi.URLParam(r, "person"),
		Month:    int(h.now().In(h.loc).Month()),
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("month must be an integer")
		}
		q.Month = m
	}
	return q, nil
}

// Monthly handles GET /api/v1/attendance/{role}/{person}.
func (h *Handler) Monthly(w http.ResponseWriter, r *http.Request) {
	h.serveMonthly(w, r, h.monthly.Monthly)
}

// ForceRefresh handles POST /api/v1/attendance/{role}/{person}/refresh.
func (h *Handler) ForceRefresh(w http.ResponseWriter, r *http.Request) {
	h.serveMonthly(w, r, h.monthly.ForceRefresh)
}

type monthlyFunc func(ctx context.Context, role, person string, month int, now time.Time) (*reconciler.MonthlyResult, error)

func (h *Handler) serveMonthly(w http.ResponseWriter, r *http.Request, fn monthlyFunc) {
	rw := NewResponseWriter(w, r)

	q, err := h.parsePersonQuery(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		rw.ValidationError(verr)
		return
	}

	res, err := fn(r.Context(), q.Role, q.PersonID, q.Month, h.now())
	if err != nil {
		rw.ServiceError(err)
		return
	}
	rw.Success(res)
}

type todayQuery struct {
	Role      string `validate:"required"`
	PersonID  string `validate:"required,max=32"`
	Direction string `validate:"required,direction"`
}

// MarkedToday handles GET /api/v1/attendance/{role}/{person}/today.
func (h *Handler) MarkedToday(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q := todayQuery{
		Role:      chi.URLParam(r, "role"),
		PersonID:  chi.URLParam(r, "person"),
		Direction: r.URL.Query().Get("direction"),
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		rw.ValidationError(verr)
		return
	}

	dir, err := models.ParseDirection(q.Direction)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	status, err := h.marks.HasMarkedToday(r.Context(), dir, q.Role, q.PersonID, h.now())
	if err != nil {
		rw.ServiceError(err)
		return
	}
	rw.Success(status)
}

type listQuery struct {
	Category  string `validate:"required,oneof=primary secondary auxiliary administrative"`
	Direction string `validate:"required,direction"`
	Month     int    `validate:"required,min=1,max=12"`
}

// ListRecords handles GET /api/v1/records.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q := listQuery{
		Category:  r.URL.Query().Get("category"),
		Direction: r.URL.Query().Get("direction"),
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil {
			rw.BadRequest("month must be an integer")
			return
		}
		q.Month = m
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		rw.ValidationError(verr)
		return
	}

	dir, err := models.ParseDirection(q.Direction)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	records, err := h.monthly.ListMonth(r.Context(), models.Category(q.Category), dir, q.Month)
	if err != nil {
		rw.ServiceError(err)
		return
	}
	if records == nil {
		records = []*models.MonthlyRecord{}
	}
	rw.SuccessWithCount(records, len(records))
}

func decodeBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}
