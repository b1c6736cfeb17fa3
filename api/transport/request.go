package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fastygo/zoo/domain"
)

// timeLayouts are tried in order. Layouts without a zone are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps, the browser's datetime-local form and bare dates.
func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, domain.Validation("invalid timestamp %q", raw)
}

// LooseString decodes a JSON string, number or null. Forms send ids either way.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LooseString(v)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*s = LooseString(n.String())
	}
	return nil
}

// Ptr returns nil for the empty string.
func (s LooseString) Ptr() *string {
	if s == "" {
		return nil
	}
	v := string(s)
	return &v
}

// Choice decodes an enumerated field. Forms send the unset value as null,
// false, 0 or "", all of which decode to "" and resolve to the default.
type Choice string

func (c *Choice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("false")):
		*c = ""
		return nil
	case bytes.Equal(data, []byte("true")):
		*c = "true"
		return nil
	case len(data) > 0 && data[0] != '"' && !bytes.Equal(data, []byte("null")):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string, number or boolean, got %s", data)
		}
		if f, err := n.Float64(); err == nil && f == 0 {
			*c = ""
			return nil
		}
		*c = Choice(n.String())
		return nil
	}
	var s LooseString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	*c = Choice(s)
	return nil
}

// TaskIDList decodes prerequisite ids sent as numbers or numeric strings.
// Empty strings, nulls and zeros are skipped.
type TaskIDList []int64

func (l *TaskIDList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Validation("prerequisites must be a list of task ids")
	}
	ids := make([]int64, 0, len(raw))
	for _, item := range raw {
		var s LooseString
		if err := json.Unmarshal(item, &s); err != nil {
			return domain.Validation("invalid prerequisite id %s", item)
		}
		value := strings.TrimSpace(string(s))
		if value == "" {
			continue
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id < 0 {
			return domain.Validation("invalid prerequisite id %q", value)
		}
		if id == 0 {
			continue
		}
		ids = append(ids, id)
	}
	*l = ids
	return nil
}

type TaskCreateRequest struct {
	Title               string      `json:"title"`
	Description         LooseString `json:"description"`
	AssignedTo          LooseString `json:"assigned_to"`
	DueAt               LooseString `json:"due_at"`
	Priority            Choice      `json:"priority"`
	Status              Choice      `json:"status"`
	PhotoRequired       bool        `json:"photo_required"`
	EnclosureID         LooseString `json:"enclosure_id"`
	SpeciesID           LooseString `json:"species_id"`
	AnimalID            LooseString `json:"animal_id"`
	ChecklistTemplateID LooseString `json:"checklist_template_id"`
	Prerequisites       TaskIDList  `json:"prerequisites"`
}

// ToTask builds the task to create along with its prerequisite ids.
func (r TaskCreateRequest) ToTask(organizationID, createdBy string) (*domain.Task, []int64, error) {
	task := &domain.Task{
		OrganizationID:      organizationID,
		CreatedBy:           createdBy,
		Title:               r.Title,
		Description:         r.Description.Ptr(),
		AssignedTo:          r.AssignedTo.Ptr(),
		Priority:            string(r.Priority),
		Status:              string(r.Status),
		PhotoRequired:       r.PhotoRequired,
		EnclosureID:         r.EnclosureID.Ptr(),
		SpeciesID:           r.SpeciesID.Ptr(),
		AnimalID:            r.AnimalID.Ptr(),
		ChecklistTemplateID: r.ChecklistTemplateID.Ptr(),
	}
	if r.DueAt != "" {
		due, err := ParseTime(string(r.DueAt))
		if err != nil {
			return nil, nil, err
		}
		task.DueAt = &due
	}
	return task, r.Prerequisites, nil
}

// ParseTaskPatch reads a PATCH body. Only keys present in the body end up in
// the patch; a null prerequisites key counts as absent.
func ParseTaskPatch(body []byte) (domain.TaskPatch, error) {
	var patch domain.TaskPatch
	if len(bytes.TrimSpace(body)) == 0 {
		return patch, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return patch, domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
	}

	textFields := map[string]*domain.Field[string]{
		"title":                 &patch.Title,
		"description":           &patch.Description,
		"assigned_to":           &patch.AssignedTo,
		"enclosure_id":          &patch.EnclosureID,
		"species_id":            &patch.SpeciesID,
		"animal_id":             &patch.AnimalID,
		"checklist_template_id": &patch.ChecklistTemplateID,
	}
	for key, slot := range textFields {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var v LooseString
		if err := json.Unmarshal(raw, &v); err != nil {
			return patch, domain.Validation("invalid %s", key)
		}
		*slot = optional(v)
	}

	choiceFields := map[string]*domain.Field[string]{
		"priority": &patch.Priority,
		"status":   &patch.Status,
	}
	for key, slot := range choiceFields {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var v Choice
		if err := json.Unmarshal(raw, &v); err != nil {
			return patch, domain.Validation("invalid %s", key)
		}
		*slot = optional(LooseString(v))
	}

	if raw, ok := fields["due_at"]; ok {
		var v LooseString
		if err := json.Unmarshal(raw, &v); err != nil {
			return patch, domain.Validation("invalid due_at")
		}
		if v == "" {
			patch.DueAt = domain.ClearField[time.Time]()
		} else {
			due, err := ParseTime(string(v))
			if err != nil {
				return patch, err
			}
			patch.DueAt = domain.SetField(due)
		}
	}

	if raw, ok := fields["photo_required"]; ok {
		var v *bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return patch, domain.Validation("invalid photo_required")
		}
		if v == nil {
			patch.PhotoRequired = domain.ClearField[bool]()
		} else {
			patch.PhotoRequired = domain.SetField(*v)
		}
	}

	if raw, ok := fields["prerequisites"]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		var ids TaskIDList
		if err := json.Unmarshal(raw, &ids); err != nil {
			return patch, err
		}
		patch.Prerequisites = domain.SetField([]int64(ids))
	}

	return patch, nil
}

func optional(v LooseString) domain.Field[string] {
	if v == "" {
		return domain.ClearField[string]()
	}
	return domain.SetField(string(v))
}

type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type EnclosureRequest struct {
	Name    string `json:"name"`
	Species string `json:"species"`
}

type GestationRequest struct {
	SpeciesID   LooseString `json:"species_id"`
	EnclosureID LooseString `json:"enclosure_id"`
}

// EnclosureIDValue returns 0 when the id is missing or not a number.
func (r GestationRequest) EnclosureIDValue() int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(string(r.EnclosureID)), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
