package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityGestation = "gestation"

	OperationComplete = "complete"

	defaultPriority = 3
	maxPriority     = 5
)

// Item is a write the primary store rejected, parked until it can be replayed.
type Item struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	Entity         string          `json:"entity"`
	Operation      string          `json:"operation"`
	Data           json.RawMessage `json:"data"`
	Priority       int             `json:"priority"`
	Retries        int             `json:"retries"`
	Timestamp      time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > maxPriority {
		i.Priority = defaultPriority
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
