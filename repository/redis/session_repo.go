package redis

import (
	"context"
	"strconv"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/repository"
)

const sessionPrefix = "zoo:session:"

const (
	fieldUserID       = "user_id"
	fieldOrganization = "organization_id"
	fieldCreatedAt    = "created_at"
	fieldExpiresAt    = "expires_at"
)

// sessionRepository keeps each session as a hash whose key expires together
// with the session itself.
type sessionRepository struct {
	client redislib.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionRepository(client redislib.Cmdable, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionRepository{client: client, ttl: ttl, now: time.Now}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	fields, err := r.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	session := &domain.Session{
		ID:             id,
		UserID:         fields[fieldUserID],
		OrganizationID: fields[fieldOrganization],
		CreatedAt:      unixMilli(fields[fieldCreatedAt]),
		ExpiresAt:      unixMilli(fields[fieldExpiresAt]),
	}
	if session.UserID == "" || session.IsExpired(r.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Save writes the session and pins the key to its expiry. Sessions without
// an expiry after their creation time get the repository TTL.
func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" || session.UserID == "" {
		return domain.ErrInvalidPayload
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.now()
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}

	key := sessionKey(session.ID)
	_, err := r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldUserID, session.UserID,
			fieldOrganization, session.OrganizationID,
			fieldCreatedAt, strconv.FormatInt(session.CreatedAt.UnixMilli(), 10),
			fieldExpiresAt, strconv.FormatInt(session.ExpiresAt.UnixMilli(), 10),
		)
		pipe.PExpireAt(ctx, key, session.ExpiresAt)
		return nil
	})
	return err
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}

func sessionKey(id string) string {
	return sessionPrefix + id
}

func unixMilli(raw string) time.Time {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
