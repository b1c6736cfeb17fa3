package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/repository"
)

// ZooStore keeps enclosures and gestations together so a completion can
// bump the enclosure population the way the Postgres transaction does.
type ZooStore struct {
	mu            sync.Mutex
	enclosures    map[int64]domain.Enclosure
	gestations    map[int64]domain.Gestation
	nextEnclosure int64
	nextGestation int64
	completeErr   error
	enclosureErr  error
	completeCalls int
}

func NewZooStore() *ZooStore {
	return &ZooStore{
		enclosures: make(map[int64]domain.Enclosure),
		gestations: make(map[int64]domain.Gestation),
	}
}

func (s *ZooStore) Enclosures() repository.EnclosureRepository { return enclosureRepo{s} }

func (s *ZooStore) Gestations() repository.GestationRepository { return gestationRepo{s} }

// FailComplete makes Complete return err until cleared with nil.
func (s *ZooStore) FailComplete(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completeErr = err
}

// FailEnclosureCreate makes enclosure creation return err until cleared with nil.
func (s *ZooStore) FailEnclosureCreate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enclosureErr = err
}

// CompleteCalls counts Complete invocations, failed ones included.
func (s *ZooStore) CompleteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completeCalls
}

// Enclosure returns a copy of the stored enclosure.
func (s *ZooStore) Enclosure(id int64) (domain.Enclosure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enclosures[id]
	return e, ok
}

// Gestation returns a copy of the stored gestation.
func (s *ZooStore) Gestation(id int64) (domain.Gestation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gestations[id]
	return g, ok
}

type enclosureRepo struct{ s *ZooStore }

func (r enclosureRepo) GetByID(_ context.Context, organizationID string, id int64) (*domain.Enclosure, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.enclosures[id]
	if !ok || e.OrganizationID != organizationID {
		return nil, domain.ErrEnclosureNotFound
	}
	return &e, nil
}

func (r enclosureRepo) List(_ context.Context, organizationID string) ([]domain.Enclosure, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Enclosure
	for _, e := range r.s.enclosures {
		if e.OrganizationID == organizationID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r enclosureRepo) Create(_ context.Context, enclosure *domain.Enclosure) (*domain.Enclosure, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.enclosureErr != nil {
		return nil, r.s.enclosureErr
	}
	r.s.nextEnclosure++
	enclosure.ID = r.s.nextEnclosure
	enclosure.CreatedAt = time.Now()
	r.s.enclosures[enclosure.ID] = *enclosure
	return enclosure, nil
}

type gestationRepo struct{ s *ZooStore }

func (r gestationRepo) Create(_ context.Context, gestation *domain.Gestation) (*domain.Gestation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextGestation++
	gestation.ID = r.s.nextGestation
	r.s.gestations[gestation.ID] = *gestation
	return gestation, nil
}

func (r gestationRepo) List(_ context.Context, organizationID string) ([]domain.Gestation, error) {
	return r.filter(func(g domain.Gestation) bool { return g.OrganizationID == organizationID }), nil
}

func (r gestationRepo) ListInProgress(context.Context) ([]domain.Gestation, error) {
	return r.filter(func(g domain.Gestation) bool { return g.InProgress() }), nil
}

func (r gestationRepo) Complete(_ context.Context, gestation domain.Gestation) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.completeCalls++
	if r.s.completeErr != nil {
		return false, r.s.completeErr
	}
	stored, ok := r.s.gestations[gestation.ID]
	if !ok || !stored.Complete() {
		return false, nil
	}
	r.s.gestations[stored.ID] = stored
	if e, ok := r.s.enclosures[stored.EnclosureID]; ok {
		e.AnimalCount++
		r.s.enclosures[e.ID] = e
	}
	return true, nil
}

func (r gestationRepo) filter(keep func(domain.Gestation) bool) []domain.Gestation {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Gestation
	for _, g := range r.s.gestations {
		if keep(g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
