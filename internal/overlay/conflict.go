package overlay

import "strings"

// Defaults for the conflict rule.
const (
	DefaultCreateMarker        = "#create"
	DefaultConflictStatus      = "409"
	DefaultConflictDescription = "Conflict - resource already exists"
	DefaultMediaType           = "application/json"
	DefaultErrorSchemaRef      = "#/components/schemas/ErrorResponse"
)

// ConflictRule describes which operations receive a conflict response and
// what that response looks like.
type ConflictRule struct {
	// Marker is matched by substring containment against the
	// entity-operation tag. The tag is free text, so the marker may
	// appear anywhere in it.
	Marker string

	// Status is the response key to insert.
	Status string

	Response Response
}

// Insertion records one response added by the rule.
type Insertion struct {
	Action          int    `json:"action"`
	Path            string `json:"path"`
	EntityOperation string `json:"entity_operation"`
}

// DefaultConflictRule returns the standard 409 rule.
func DefaultConflictRule() ConflictRule {
	return ConflictRule{
		Marker: DefaultCreateMarker,
		Status: DefaultConflictStatus,
		Response: Response{
			Description: DefaultConflictDescription,
			Content: []MediaType{
				{Name: DefaultMediaType, SchemaRef: DefaultErrorSchemaRef},
			},
		},
	}
}

// IsCreate reports whether op is tagged as a create operation.
func (r ConflictRule) IsCreate(op *Operation) bool {
	return op != nil && strings.Contains(op.Tag(), r.Marker)
}

// Apply inserts the conflict response into every qualifying post operation
// of u and returns the insertions made. A nil update is a no-op. Operations
// without a responses field are left alone; no field is fabricated.
//
// A selected operation whose responses field is not a mapping fails the
// whole update with a *ShapeError. Operations the rule does not select are
// never inspected beyond their tag.
func (r ConflictRule) Apply(u *Update) ([]Insertion, error) {
	if u == nil {
		return nil, nil
	}

	var added []Insertion
	for _, item := range u.Paths {
		op := item.Post
		if !r.IsCreate(op) {
			continue
		}
		if err := op.ResponsesErr(); err != nil {
			return nil, err
		}
		if op.Responses == nil {
			continue
		}
		if op.Responses.Has(r.Status) {
			continue
		}
		op.Responses.Add(r.Status, r.Response)
		added = append(added, Insertion{Path: item.Path, EntityOperation: op.Tag()})
	}
	return added, nil
}

// ApplyDocument runs the rule over every action with an update payload.
// The document is modified iff the result is non-empty. On error the
// document may be partially modified and must not be written.
func (r ConflictRule) ApplyDocument(d *Document) ([]Insertion, error) {
	var added []Insertion
	for _, a := range d.Actions {
		inserted, err := r.Apply(a.Update)
		if err != nil {
			return nil, err
		}
		for _, ins := range inserted {
			ins.Action = a.Index
			added = append(added, ins)
		}
	}
	return added, nil
}

// AddConflictResponses applies the default rule to u and reports whether
// anything was inserted.
func AddConflictResponses(u *Update) (bool, error) {
	added, err := DefaultConflictRule().Apply(u)
	return len(added) > 0, err
}
