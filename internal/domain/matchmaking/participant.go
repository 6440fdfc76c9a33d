package matchmaking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidBaseline - порог совместимости вне диапазона [0, 1].
	ErrInvalidBaseline = errors.New("baseline must be within [0, 1]")

	// ErrInvalidParticipant - запись участника неполна (нет id, класса или категории).
	ErrInvalidParticipant = errors.New("participant record is incomplete")

	// ErrDuplicateParticipant - идентификатор участника встречается дважды.
	ErrDuplicateParticipant = errors.New("duplicate participant id in roster")
)

// ══════════════════════════════════════════════════════════════════════════════
// INTENT
// ══════════════════════════════════════════════════════════════════════════════

// Intent - категория подбора, запрошенная участником.
type Intent string

const (
	// IntentFriend - участник ищет друга (пары).
	IntentFriend Intent = "friend"

	// IntentDate - участник ищет пару для свидания (пары с взаимными предпочтениями).
	IntentDate Intent = "date"

	// IntentGroup - участник ищет компанию (группы по 3-4 человека).
	IntentGroup Intent = "group"
)

// IsValid проверяет корректность категории.
func (i Intent) IsValid() bool {
	switch i {
	case IntentFriend, IntentDate, IntentGroup:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление категории.
func (i Intent) String() string {
	return string(i)
}

// ParseIntent нормализует строку в категорию подбора.
func ParseIntent(s string) Intent {
	return Intent(strings.ToLower(strings.TrimSpace(s)))
}

// ══════════════════════════════════════════════════════════════════════════════
// PARTICIPANT SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Participant - неизменяемый снимок участника на один прогон подбора.
// Снимок строится вызывающей стороной из актуальных данных хранилища;
// ядро никогда не модифицирует его.
type Participant struct {
	// ID - стабильный идентификатор, уникальный в пределах прогона.
	ID string

	// Grade - класс (год обучения).
	Grade int

	// Intent - категория подбора.
	Intent Intent

	// Gender - пол участника в нижнем регистре (может быть пустым).
	Gender string

	// PreferredGenders - принимаемые полы в нижнем регистре.
	// Пустой список означает "без ограничений, принимаю любой пол".
	PreferredGenders []string

	// Answers - ответы на анкету: номер вопроса -> нормализованный ответ.
	// Присутствуют только вопросы, на которые участник ответил.
	Answers map[int]string
}

// Validate проверяет, что обязательные поля снимка заполнены.
func (p Participant) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidParticipant)
	}
	if p.Grade <= 0 {
		return fmt.Errorf("%w: participant %s has no grade", ErrInvalidParticipant, p.ID)
	}
	if !p.Intent.IsValid() {
		return fmt.Errorf("%w: participant %s has intent %q", ErrInvalidParticipant, p.ID, p.Intent)
	}
	return nil
}

// Accepts проверяет, принимает ли участник данный пол.
// Пустой список предпочтений означает согласие на любой пол.
func (p Participant) Accepts(gender string) bool {
	if len(p.PreferredGenders) == 0 {
		return true
	}
	for _, g := range p.PreferredGenders {
		if g == gender {
			return true
		}
	}
	return false
}

// QuestionIDs возвращает отсортированное объединение номеров вопросов,
// на которые ответил хоть кто-то из ростера. Единый набор гарантирует
// одинаковый знаменатель оценки для каждой пары.
func QuestionIDs(roster []Participant) []int {
	seen := make(map[int]struct{})
	for _, p := range roster {
		for q := range p.Answers {
			seen[q] = struct{}{}
		}
	}

	ids := make([]int, 0, len(seen))
	for q := range seen {
		ids = append(ids, q)
	}
	sort.Ints(ids)
	return ids
}
