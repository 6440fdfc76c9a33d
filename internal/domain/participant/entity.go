// Package participant содержит доменную модель участника Emma Hub.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package participant

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNotFound - участник не найден.
	ErrNotFound = errors.New("participant not found")

	// ErrAlreadyExists - участник с таким email уже зарегистрирован.
	ErrAlreadyExists = errors.New("participant already exists")

	// ErrInvalidEmail - некорректный email.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrMissingFields - не заполнены обязательные поля анкеты.
	ErrMissingFields = errors.New("missing required fields")

	// ErrNotEnoughAnswers - прислано меньше ответов, чем вопросов в анкете.
	ErrNotEnoughAnswers = errors.New("not enough quiz answers")

	// ErrAlreadySubmitted - анкета уже отправляется в параллельном запросе.
	ErrAlreadySubmitted = errors.New("quiz submission already in progress")
)

// MinQuizAnswers - минимальное число ответов полной анкеты.
const MinQuizAnswers = 25

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Email представляет нормализованный адрес участника.
type Email string

// NewEmail нормализует и проверяет адрес.
func NewEmail(raw string) (Email, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 || !strings.Contains(s[at+1:], ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	return Email(s), nil
}

// String возвращает строковое представление адреса.
func (e Email) String() string {
	return string(e)
}

// Grade представляет класс участника в том виде, как он был введён
// ("11", "11th", "9 класс" и т.п.).
type Grade string

// Year извлекает численный год обучения. Суффиксы порядковых числительных
// ("11th", "3rd") отбрасываются; при неразборчивом значении возвращается
// 11 - медианный класс аудитории.
func (g Grade) Year() int {
	s := strings.TrimSpace(string(g))
	for _, suffix := range []string{"th", "rd", "st", "nd"} {
		s = strings.ReplaceAll(s, suffix, "")
	}
	if year, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return year
	}
	return 11
}

// String возвращает строковое представление класса.
func (g Grade) String() string {
	return string(g)
}

// ══════════════════════════════════════════════════════════════════════════════
// PARTICIPANT ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Participant - участник подбора: профиль регистрации плюс ответы анкеты.
type Participant struct {
	// ID - внутренний идентификатор (UUID).
	ID string

	// FirstName - имя.
	FirstName string

	// LastName - фамилия.
	LastName string

	// Email - нормализованный адрес, уникален среди участников.
	Email Email

	// Grade - класс, как введён участником.
	Grade Grade

	// Gender - пол в нижнем регистре.
	Gender string

	// PreferredGenders - принимаемые полы в нижнем регистре.
	// Пустой список означает отсутствие ограничений.
	PreferredGenders []string

	// Intent - категория подбора (friend/date/group), нижний регистр.
	// Пустая строка до отправки анкеты.
	Intent string

	// Answers - ответы анкеты: номер вопроса -> ответ.
	Answers map[int]string

	// SubmittedAt - когда отправлена анкета (nil, если ещё не отправлена).
	SubmittedAt *time.Time

	// CreatedAt - когда создан профиль.
	CreatedAt time.Time

	// UpdatedAt - когда профиль обновлялся в последний раз.
	UpdatedAt time.Time
}

// NewParticipantParams - параметры регистрации участника.
type NewParticipantParams struct {
	ID               string
	FirstName        string
	LastName         string
	Email            string
	Grade            string
	Gender           string
	PreferredGenders []string
}

// NewParticipant создаёт профиль участника с нормализацией полей.
func NewParticipant(params NewParticipantParams) (*Participant, error) {
	first := strings.TrimSpace(params.FirstName)
	last := strings.TrimSpace(params.LastName)
	grade := strings.TrimSpace(params.Grade)
	gender := strings.ToLower(strings.TrimSpace(params.Gender))

	if params.ID == "" || first == "" || last == "" || grade == "" || gender == "" {
		return nil, ErrMissingFields
	}

	email, err := NewEmail(params.Email)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Participant{
		ID:               params.ID,
		FirstName:        first,
		LastName:         last,
		Email:            email,
		Grade:            Grade(grade),
		Gender:           gender,
		PreferredGenders: NormalizeGenders(params.PreferredGenders),
		Answers:          make(map[int]string),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// FullName возвращает полное имя участника.
func (p *Participant) FullName() string {
	return p.FirstName + " " + p.LastName
}

// HasCompletedQuiz проверяет, отправлена ли анкета.
func (p *Participant) HasCompletedQuiz() bool {
	return p.SubmittedAt != nil
}

// SubmitQuiz записывает ответы анкеты и категорию подбора.
// Повторная отправка перезаписывает предыдущую - участник может передумать.
func (p *Participant) SubmitQuiz(answers map[int]string, intent string, at time.Time) error {
	if len(answers) < MinQuizAnswers {
		return fmt.Errorf("%w: got %d, need %d", ErrNotEnoughAnswers, len(answers), MinQuizAnswers)
	}

	normalized := strings.ToLower(strings.TrimSpace(intent))
	if normalized != "friend" && normalized != "date" && normalized != "group" {
		return fmt.Errorf("%w: unknown intent %q", ErrMissingFields, intent)
	}

	p.Answers = make(map[int]string, len(answers))
	for q, a := range answers {
		p.Answers[q] = a
	}
	p.Intent = normalized
	submitted := at.UTC()
	p.SubmittedAt = &submitted
	p.UpdatedAt = submitted
	return nil
}

// UpdateProfile обновляет поля регистрации у существующего участника.
func (p *Participant) UpdateProfile(params NewParticipantParams) error {
	fresh, err := NewParticipant(NewParticipantParams{
		ID:               p.ID,
		FirstName:        params.FirstName,
		LastName:         params.LastName,
		Email:            params.Email,
		Grade:            params.Grade,
		Gender:           params.Gender,
		PreferredGenders: params.PreferredGenders,
	})
	if err != nil {
		return err
	}

	p.FirstName = fresh.FirstName
	p.LastName = fresh.LastName
	p.Email = fresh.Email
	p.Grade = fresh.Grade
	p.Gender = fresh.Gender
	p.PreferredGenders = fresh.PreferredGenders
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// NormalizeGenders приводит список полов к нижнему регистру без пустых значений.
func NormalizeGenders(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, g := range raw {
		if s := strings.ToLower(strings.TrimSpace(g)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
