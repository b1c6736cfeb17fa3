package domain

import "time"

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"

	DefaultMemberRole = "member"
)

// Invite asks an existing user to join an organization. Accepting it moves
// the user, with the invited role, into that organization.
type Invite struct {
	ID             int64     `json:"id"`
	OrganizationID string    `json:"organization_id"`
	InvitedBy      string    `json:"invited_by"`
	InvitedUserID  string    `json:"invited_user_id"`
	InvitedEmail   string    `json:"invited_email"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (i *Invite) IsPending() bool {
	return i != nil && i.Status == InviteStatusPending
}

// Respond closes a pending invite. It reports false when the invite was
// already answered.
func (i *Invite) Respond(accept bool, at time.Time) bool {
	if !i.IsPending() {
		return false
	}
	i.Status = InviteStatusDeclined
	if accept {
		i.Status = InviteStatusAccepted
	}
	i.UpdatedAt = at
	return true
}
