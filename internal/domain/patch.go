package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// Patch field names
const (
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldDueDate       = "due_date"
	FieldPriority      = "priority"
	FieldStatus        = "status"
	FieldResponsibleID = "responsible_id"
)

// writablePatchFields maps accepted JSON keys to the field they set
var writablePatchFields = map[string]string{
	"title":          FieldTitle,
	"description":    FieldDescription,
	"due_date":       FieldDueDate,
	"end_date":       FieldDueDate,
	"priority":       FieldPriority,
	"status":         FieldStatus,
	"responsible_id": FieldResponsibleID,
}

// readOnlyPatchFields are server-managed or joined keys. Clients echo them back
// from a fetched record; they are recognized and dropped.
var readOnlyPatchFields = map[string]bool{
	"id":                  true,
	"created_at":          true,
	"updated_at":          true,
	"creator_id":          true,
	"creator_name":        true,
	"creator_surname":     true,
	"responsible_name":    true,
	"responsible_surname": true,
}

// Patch is a partial update of a task. Nil fields are left untouched.
type Patch struct {
	Title         *string
	Description   *string
	DueDate       *Date
	Priority      *Priority
	Status        *Status
	ResponsibleID *int64
}

// UnmarshalJSON decodes a patch, rejecting any key outside the allow-list
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Invalid("", "invalid request structure")
	}

	// Sorted so the first reported error is deterministic
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out Patch
	for _, key := range keys {
		value := raw[key]
		if readOnlyPatchFields[key] {
			continue
		}
		field, ok := writablePatchFields[key]
		if !ok {
			return Invalid(key, "unknown field %q", key)
		}
		if string(value) == "null" {
			if field == FieldDescription {
				empty := ""
				out.Description = &empty
				continue
			}
			return Invalid(field, "%s cannot be null", field)
		}
		if err := out.decodeField(field, value); err != nil {
			return err
		}
	}
	*p = out
	return nil
}

func (p *Patch) decodeField(field string, value json.RawMessage) error {
	var err error
	switch field {
	case FieldTitle:
		var s string
		err = json.Unmarshal(value, &s)
		p.Title = &s
	case FieldDescription:
		var s string
		err = json.Unmarshal(value, &s)
		p.Description = &s
	case FieldDueDate:
		var d Date
		err = json.Unmarshal(value, &d)
		p.DueDate = &d
	case FieldPriority:
		var s Priority
		err = json.Unmarshal(value, &s)
		p.Priority = &s
	case FieldStatus:
		var s Status
		err = json.Unmarshal(value, &s)
		p.Status = &s
	case FieldResponsibleID:
		var id int64
		err = json.Unmarshal(value, &id)
		p.ResponsibleID = &id
	}
	if err != nil {
		return Invalid(field, "malformed %s", field)
	}
	return nil
}

// MarshalJSON encodes only the fields that are set
func (p Patch) MarshalJSON() ([]byte, error) {
	out := make(map[string]any)
	if p.Title != nil {
		out[FieldTitle] = *p.Title
	}
	if p.Description != nil {
		out[FieldDescription] = *p.Description
	}
	if p.DueDate != nil {
		out[FieldDueDate] = *p.DueDate
	}
	if p.Priority != nil {
		out[FieldPriority] = *p.Priority
	}
	if p.Status != nil {
		out[FieldStatus] = *p.Status
	}
	if p.ResponsibleID != nil {
		out[FieldResponsibleID] = *p.ResponsibleID
	}
	return json.Marshal(out)
}

// Fields returns the names of the fields the patch sets, sorted
func (p Patch) Fields() []string {
	var fields []string
	if p.Description != nil {
		fields = append(fields, FieldDescription)
	}
	if p.DueDate != nil {
		fields = append(fields, FieldDueDate)
	}
	if p.Priority != nil {
		fields = append(fields, FieldPriority)
	}
	if p.ResponsibleID != nil {
		fields = append(fields, FieldResponsibleID)
	}
	if p.Status != nil {
		fields = append(fields, FieldStatus)
	}
	if p.Title != nil {
		fields = append(fields, FieldTitle)
	}
	return fields
}

// IsEmpty reports whether the patch sets nothing
func (p Patch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// OnlyStatus reports whether the patch touches nothing but status
func (p Patch) OnlyStatus() bool {
	for _, f := range p.Fields() {
		if f != FieldStatus {
			return false
		}
	}
	return true
}

// Validate checks the values of the fields that are set
func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return Invalid(FieldTitle, "title cannot be empty")
	}
	if p.DueDate != nil && p.DueDate.IsZero() {
		return Invalid(FieldDueDate, "due date cannot be empty")
	}
	if p.Priority != nil && !ValidatePriority(string(*p.Priority)) {
		return Invalid(FieldPriority, "invalid priority: %s (must be low|medium|high)", *p.Priority)
	}
	if p.Status != nil && !ValidateStatus(string(*p.Status)) {
		return Invalid(FieldStatus, "invalid status: %s (must be to_do|in_progress|done|cancelled)", *p.Status)
	}
	if p.ResponsibleID != nil && *p.ResponsibleID <= 0 {
		return Invalid(FieldResponsibleID, "responsible_id must be positive")
	}
	return nil
}

// Apply writes the set fields onto t. Timestamps are left to the caller.
func (p Patch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.ResponsibleID != nil {
		t.ResponsibleID = *p.ResponsibleID
	}
}

// StatusPatch builds a patch that only changes status
func StatusPatch(s Status) Patch {
	return Patch{Status: &s}
}
