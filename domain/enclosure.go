package domain

import "time"

const (
	DefaultEnclosureName    = "Recinto Padrão"
	DefaultEnclosureSpecies = "Espécie Inicial"
)

// Enclosure is a physical habitat; AnimalCount is its population counter.
type Enclosure struct {
	ID             int64     `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Species        string    `json:"species,omitempty"`
	AnimalCount    int       `json:"animal_count"`
	CreatedAt      time.Time `json:"created_at"`
}
