package participant

import (
	"context"
	"time"
)

// Repository определяет контракт хранилища участников.
// Реализация - internal/infrastructure/persistence/postgres.
type Repository interface {
	// Create сохраняет нового участника.
	// Возвращает ErrAlreadyExists при занятом email.
	Create(ctx context.Context, p *Participant) error

	// Update обновляет профиль существующего участника.
	Update(ctx context.Context, p *Participant) error

	// GetByID возвращает участника по внутреннему идентификатору.
	// Возвращает ErrNotFound, если участника нет.
	GetByID(ctx context.Context, id string) (*Participant, error)

	// GetByEmail возвращает участника по нормализованному email.
	// Возвращает ErrNotFound, если участника нет.
	GetByEmail(ctx context.Context, email Email) (*Participant, error)

	// SaveSubmission в одной транзакции записывает ответы анкеты,
	// категорию подбора, отметку времени и снимок для аудита.
	SaveSubmission(ctx context.Context, p *Participant, submittedAt time.Time) error

	// ListCompleted возвращает всех участников с отправленной анкетой
	// вместе с их ответами, в стабильном порядке регистрации.
	ListCompleted(ctx context.Context) ([]*Participant, error)
}
