package command

import (
	"context"
	"sync"
	"time"

	"github.com/emma-hub/emma-backend/internal/domain/matchrun"
	"github.com/emma-hub/emma-backend/internal/domain/participant"
	"github.com/emma-hub/emma-backend/internal/domain/shared"
)

// memParticipantRepo is an in-memory participant.Repository for handler tests.
type memParticipantRepo struct {
	mu      sync.Mutex
	byID    map[string]*participant.Participant
	order   []string
	failTag string // operation name forced to fail
	failErr error
}

func newMemParticipantRepo() *memParticipantRepo {
	return &memParticipantRepo{byID: make(map[string]*participant.Participant)}
}

func (r *memParticipantRepo) fail(op string) error {
	if r.failTag == op {
		return r.failErr
	}
	return nil
}

func (r *memParticipantRepo) Create(_ context.Context, p *participant.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("create"); err != nil {
		return err
	}
	for _, existing := range r.byID {
		if existing.Email == p.Email {
			return participant.ErrAlreadyExists
		}
	}
	clone := *p
	r.byID[p.ID] = &clone
	r.order = append(r.order, p.ID)
	return nil
}

func (r *memParticipantRepo) Update(_ context.Context, p *participant.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; !ok {
		return participant.ErrNotFound
	}
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *memParticipantRepo) GetByID(_ context.Context, id string) (*participant.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, participant.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memParticipantRepo) GetByEmail(_ context.Context, email participant.Email) (*participant.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.Email == email {
			clone := *p
			return &clone, nil
		}
	}
	return nil, participant.ErrNotFound
}

func (r *memParticipantRepo) SaveSubmission(_ context.Context, p *participant.Participant, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("save_submission"); err != nil {
		return err
	}
	if _, ok := r.byID[p.ID]; !ok {
		return participant.ErrNotFound
	}
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *memParticipantRepo) ListCompleted(_ context.Context) ([]*participant.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("list_completed"); err != nil {
		return nil, err
	}
	out := make([]*participant.Participant, 0, len(r.order))
	for _, id := range r.order {
		if p := r.byID[id]; p.HasCompletedQuiz() {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

// memMatchRunRepo is an in-memory matchrun.Repository.
type memMatchRunRepo struct {
	mu   sync.Mutex
	runs []*matchrun.MatchRun
	err  error
}

func (r *memMatchRunRepo) Create(_ context.Context, run *matchrun.MatchRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.runs = append(r.runs, run)
	return nil
}

func (r *memMatchRunRepo) Latest(_ context.Context) (*matchrun.MatchRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.runs) == 0 {
		return nil, matchrun.ErrNotFound
	}
	return r.runs[len(r.runs)-1], nil
}

func (r *memMatchRunRepo) GetByID(_ context.Context, id string) (*matchrun.MatchRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, matchrun.ErrNotFound
}

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) published() []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.Event(nil), p.events...)
}

// stubGuard implements SubmissionGuard with scripted behavior.
type stubGuard struct {
	acquired bool
	err      error
	releases int
}

func (g *stubGuard) Acquire(context.Context, string) (bool, error) {
	return g.acquired, g.err
}

func (g *stubGuard) Release(context.Context, string) error {
	g.releases++
	return nil
}
