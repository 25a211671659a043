package overlay

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ShapeError reports a field whose YAML node kind does not match the shape
// the rule needs (e.g. a post entry that is a scalar).
type ShapeError struct {
	// Field is a dotted locator such as "actions[0].update./pipelines.post".
	Field string

	// Want and Got name the expected and actual node kinds.
	Want string
	Got  string

	Line   int
	Column int
}

func (e *ShapeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d:%d: %s: expected %s, got %s", e.Line, e.Column, e.Field, e.Want, e.Got)
	}
	return fmt.Sprintf("%s: expected %s, got %s", e.Field, e.Want, e.Got)
}

func newShapeError(field, want string, n *yaml.Node) *ShapeError {
	return &ShapeError{
		Field:  field,
		Want:   want,
		Got:    kindName(n),
		Line:   n.Line,
		Column: n.Column,
	}
}

// kindName describes a node for error messages.
func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	case yaml.ScalarNode:
		if isNull(n) {
			return "null"
		}
		return "scalar " + n.ShortTag()
	default:
		return "unknown"
	}
}
