package matchrun

import "time"

// Виды результата для одного участника.
const (
	KindFriend = "friend"
	KindDate   = "date"
	KindGroup  = "group"
)

// ParticipantView - результат подбора с точки зрения одного участника:
// либо пара (категория friend/date, партнёр, балл), либо группа.
type ParticipantView struct {
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	Partner   string    `json:"partner,omitempty"`
	Score     float64   `json:"score,omitempty"`
	Members   []string  `json:"members,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ViewFor извлекает из прогона результат для участника.
// Возвращает (nil, false), если участник не попал ни в пару, ни в группу.
func (r *MatchRun) ViewFor(participantID string) (*ParticipantView, bool) {
	if r.Result == nil {
		return nil, false
	}

	for _, pair := range r.Result.FriendPairs {
		if pair.A == participantID || pair.B == participantID {
			partner := pair.B
			if pair.B == participantID {
				partner = pair.A
			}
			return &ParticipantView{
				RunID:     r.ID,
				Kind:      KindFriend,
				Partner:   partner,
				Score:     pair.Score,
				CreatedAt: r.CreatedAt,
			}, true
		}
	}

	for _, pair := range r.Result.DatePairs {
		if pair.A == participantID || pair.B == participantID {
			partner := pair.B
			if pair.B == participantID {
				partner = pair.A
			}
			return &ParticipantView{
				RunID:     r.ID,
				Kind:      KindDate,
				Partner:   partner,
				Score:     pair.Score,
				CreatedAt: r.CreatedAt,
			}, true
		}
	}

	for _, group := range r.Result.Groups {
		for _, member := range group.Members {
			if member != participantID {
				continue
			}
			// Состав группы отдаём целиком, включая самого участника.
			members := make([]string, len(group.Members))
			copy(members, group.Members)
			return &ParticipantView{
				RunID:     r.ID,
				Kind:      KindGroup,
				Members:   members,
				CreatedAt: r.CreatedAt,
			}, true
		}
	}

	return nil, false
}
