// Package matchrun содержит доменную модель сохранённого прогона подбора.
package matchrun

import (
	"context"
	"errors"
	"time"

	"github.com/emma-hub/emma-backend/internal/domain/matchmaking"
)

var (
	// ErrNotFound - сохранённых прогонов ещё нет.
	ErrNotFound = errors.New("match run not found")
)

// MatchRun - один завершённый прогон подбора, сохранённый целиком.
// История прогонов хранится append-only; актуален последний по времени.
type MatchRun struct {
	// ID - идентификатор прогона (UUID).
	ID string

	// Baseline - порог совместимости, с которым выполнялся прогон.
	Baseline float64

	// Result - полный результат подбора; сериализуется в payload как есть.
	Result *matchmaking.MatchResult

	// CreatedAt - когда выполнен прогон.
	CreatedAt time.Time
}

// Repository определяет контракт хранилища прогонов.
type Repository interface {
	// Create сохраняет завершённый прогон.
	Create(ctx context.Context, run *MatchRun) error

	// Latest возвращает последний по времени прогон.
	// Возвращает ErrNotFound, если прогонов ещё не было.
	Latest(ctx context.Context) (*MatchRun, error)

	// GetByID возвращает прогон по идентификатору.
	GetByID(ctx context.Context, id string) (*MatchRun, error)
}
