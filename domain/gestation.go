package domain

import "time"

const (
	GestationInProgress = "in-progress"
	GestationCompleted  = "completed"

	SyncStateSynced = "synced"
	SyncStateStale  = "stale"
)

// Gestation tracks a reproduction cycle of a species inside an enclosure.
type Gestation struct {
	ID             int64     `json:"id"`
	OrganizationID string    `json:"organization_id"`
	SpeciesID      string    `json:"species_id"`
	EnclosureID    int64     `json:"enclosure_id"`
	StartedAt      time.Time `json:"started_at"`
	Status         string    `json:"status"`
	OffspringCount int       `json:"offspring_count"`

	// SyncState is not persisted; it reports whether the last completion
	// attempt for this record reached the store.
	SyncState string `json:"sync_state,omitempty"`
}

func (g *Gestation) InProgress() bool {
	return g != nil && g.Status == GestationInProgress
}

// Due reports whether the gestation has run for at least period at reference time.
func (g *Gestation) Due(reference time.Time, period time.Duration) bool {
	if !g.InProgress() {
		return false
	}
	return reference.Sub(g.StartedAt) >= period
}

// Complete applies the completion transition: one offspring, then the
// gestation is closed. It reports false when g was not in progress.
func (g *Gestation) Complete() bool {
	if !g.InProgress() {
		return false
	}
	g.Status = GestationCompleted
	g.OffspringCount++
	return true
}
