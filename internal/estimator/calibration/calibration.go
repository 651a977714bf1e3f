// Package calibration устанавливает масштаб пиксели↔миллиметры проекта.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"renovation-estimator/internal/estimator/models"

	"github.com/google/uuid"
)

var (
	ErrNotALine      = errors.New("calibration requires a line primitive")
	ErrNotASegment   = errors.New("calibration line must be a single segment")
	ErrZeroLength    = errors.New("calibration line has zero length")
	ErrInvalidLength = errors.New("known length must be a positive number")
	ErrInvalidHeight = errors.New("ceiling height must be a non-negative number")
	ErrNoPending     = errors.New("no pending calibration line")
)

// Store: хранилище масштаба проекта.
type Store interface {
	SaveCalibration(ctx context.Context, projectID string, c models.Calibration) error
}

// Pending: нарисованная, но ещё не подтверждённая линия калибровки.
type Pending struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	PrimitiveID string    `json:"primitiveId,omitempty"`
	PixelLength float64   `json:"pixelLength"`
	ProposedAt  time.Time `json:"proposedAt"`
}

// ============================================================
// Registry
// ============================================================

// Registry хранит по одной ожидающей линии на проект.
type Registry struct {
	mu      sync.Mutex
	pending map[string]Pending // projectID -> pending
}

func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[string]Pending),
	}
}

// Propose принимает линию калибровки. Новая линия вытесняет предыдущую.
func (r *Registry) Propose(projectID string, p models.Primitive) (Pending, error) {
	line, ok := p.Shape.(models.LineShape)
	if !ok {
		return Pending{}, ErrNotALine
	}
	if len(line.Points) != 2 {
		return Pending{}, ErrNotASegment
	}
	length := line.LengthPx()
	if length <= 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return Pending{}, ErrZeroLength
	}

	pending := Pending{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		PrimitiveID: p.ID,
		PixelLength: length,
		ProposedAt:  time.Now().UTC(),
	}

	r.mu.Lock()
	r.pending[projectID] = pending
	r.mu.Unlock()

	log.Printf("[CALIBRATION] project %s: pending line %.2fpx", projectID, length)
	return pending, nil
}

func (r *Registry) Pending(projectID string) (Pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[projectID]
	return p, ok
}

// Cancel отбрасывает ожидающую линию; сохранённый масштаб не меняется.
func (r *Registry) Cancel(projectID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.pending[projectID]
	delete(r.pending, projectID)
	return ok
}

// Confirm сохраняет масштаб из ожидающей линии. pendingID защищает от подтверждения
// линии, которую пользователь уже отменил или заменил; пустой pendingID берёт текущую.
func (r *Registry) Confirm(ctx context.Context, store Store, projectID, pendingID string, knownLengthMm, ceilingHeightMm float64) (models.Calibration, error) {
	if knownLengthMm <= 0 || math.IsNaN(knownLengthMm) || math.IsInf(knownLengthMm, 0) {
		return models.Calibration{}, ErrInvalidLength
	}
	if ceilingHeightMm < 0 || math.IsNaN(ceilingHeightMm) || math.IsInf(ceilingHeightMm, 0) {
		return models.Calibration{}, ErrInvalidHeight
	}

	pending, err := r.claim(projectID, pendingID)
	if err != nil {
		return models.Calibration{}, err
	}

	cal := models.Calibration{
		Scale: models.Scale{
			KnownLengthMm: knownLengthMm,
			PixelLength:   pending.PixelLength,
		},
		CeilingHeightMm: ceilingHeightMm,
		UpdatedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	if err := store.SaveCalibration(ctx, projectID, cal); err != nil {
		r.restore(pending)
		return models.Calibration{}, fmt.Errorf("save calibration: %w", err)
	}

	log.Printf("[CALIBRATION] project %s: %.3f mm/px, ceiling %.0f mm",
		projectID, cal.Scale.MmPerPixel(), ceilingHeightMm)
	return cal, nil
}

// claim атомарно забирает ожидающую линию.
func (r *Registry) claim(projectID, pendingID string) (Pending, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[projectID]
	if !ok || (pendingID != "" && p.ID != pendingID) {
		return Pending{}, ErrNoPending
	}
	delete(r.pending, projectID)
	return p, nil
}

// restore возвращает линию после неудачной записи, если её не успели заменить.
func (r *Registry) restore(p Pending) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[p.ProjectID]; !ok {
		r.pending[p.ProjectID] = p
	}
}

// ============================================================
// Helpers
// ============================================================

// ParseLength разбирает введённую пользователем длину («3000», «2,7»).
func ParseLength(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidLength
	}
	return v, nil
}

// StageEnabled закрывает все этапы, кроме калибровки, пока масштаба нет.
func StageEnabled(stage models.Stage, cal *models.Calibration) bool {
	if stage == models.StageCalibration {
		return true
	}
	return cal != nil && cal.Scale.Valid()
}
