package overlay

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// EncodeIndent is the indentation used when a document is written back.
const EncodeIndent = 2

// Document is a parsed overlay.
type Document struct {
	root *yaml.Node

	// HasActions is false when the document is empty or has no actions
	// field; such documents are never modified.
	HasActions bool

	Actions []*Action
}

// ErrMultipleDocuments is returned by Parse for a stream holding more than
// one YAML document. Encode writes a single document, so such files are
// rejected instead of being truncated.
var ErrMultipleDocuments = errors.New("overlay contains more than one YAML document")

// Parse decodes an overlay document. An empty input, or one whose top
// level is not a mapping, parses to a Document without actions.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return &Document{root: &root}, nil
		}
		return nil, fmt.Errorf("parsing overlay: %w", err)
	}

	var extra yaml.Node
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
	case err != nil:
		return nil, fmt.Errorf("parsing overlay: %w", err)
	default:
		return nil, fmt.Errorf("parsing overlay: line %d: %w", extra.Line, ErrMultipleDocuments)
	}

	doc := &Document{root: &root}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return doc, nil
	}

	top := resolve(root.Content[0])
	_, actions := lookup(top, KeyActions)
	if actions == nil {
		return doc, nil
	}

	decoded, err := decodeActions(actions)
	if err != nil {
		return nil, err
	}
	doc.HasActions = true
	doc.Actions = decoded
	return doc, nil
}

// Encode serializes the document in block style with key order, quoting
// and comments as loaded. yaml.v3 has no line width setting, so long
// scalars are never folded, whatever their length.
func (d *Document) Encode() ([]byte, error) {
	if d.root == nil || d.root.Kind == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(EncodeIndent)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("encoding overlay: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding overlay: %w", err)
	}
	return buf.Bytes(), nil
}
