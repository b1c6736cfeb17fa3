package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/repository"
)

// InviteStore is an in-memory InviteRepository. Acceptance moves the user
// inside the shared UserStore, the way the Postgres transaction does.
type InviteStore struct {
	mu      sync.Mutex
	users   *UserStore
	invites map[int64]domain.Invite
	nextID  int64
	err     error
}

var _ repository.InviteRepository = (*InviteStore)(nil)

func NewInviteStore(users *UserStore) *InviteStore {
	return &InviteStore{users: users, invites: make(map[int64]domain.Invite)}
}

// Fail makes every later call return err. A nil err clears it.
func (s *InviteStore) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *InviteStore) Create(_ context.Context, invite *domain.Invite) (*domain.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if invite == nil {
		return nil, domain.ErrInvalidPayload
	}
	for _, existing := range s.invites {
		if existing.IsPending() &&
			existing.OrganizationID == invite.OrganizationID &&
			strings.EqualFold(existing.InvitedEmail, invite.InvitedEmail) {
			return nil, domain.ErrInvitePending
		}
	}
	s.nextID++
	now := time.Now()
	invite.ID = s.nextID
	invite.CreatedAt, invite.UpdatedAt = now, now
	s.invites[invite.ID] = *invite
	return invite, nil
}

func (s *InviteStore) GetByID(_ context.Context, id int64) (*domain.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	invite, ok := s.invites[id]
	if !ok {
		return nil, domain.ErrInviteNotFound
	}
	return &invite, nil
}

func (s *InviteStore) ListPendingByOrganization(_ context.Context, organizationID string) ([]domain.Invite, error) {
	return s.pending(func(i domain.Invite) bool { return i.OrganizationID == organizationID })
}

func (s *InviteStore) ListPendingForUser(_ context.Context, userID string) ([]domain.Invite, error) {
	return s.pending(func(i domain.Invite) bool { return i.InvitedUserID == userID })
}

func (s *InviteStore) Respond(_ context.Context, invite domain.Invite, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	stored, ok := s.invites[invite.ID]
	if !ok || !stored.Respond(status == domain.InviteStatusAccepted, time.Now()) {
		return false, nil
	}
	if stored.Status == domain.InviteStatusAccepted && s.users != nil {
		if err := s.users.move(stored.InvitedUserID, stored.OrganizationID, stored.Role); err != nil {
			return false, err
		}
	}
	s.invites[stored.ID] = stored
	return true, nil
}

func (s *InviteStore) pending(keep func(domain.Invite) bool) ([]domain.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Invite
	for _, invite := range s.invites {
		if invite.IsPending() && keep(invite) {
			out = append(out, invite)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
