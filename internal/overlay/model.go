package overlay

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Field names read from overlay documents.
const (
	KeyActions         = "actions"
	KeyTarget          = "target"
	KeyUpdate          = "update"
	KeyPost            = "post"
	KeyResponses       = "responses"
	KeyEntityOperation = "x-speakeasy-entity-operation"
)

// Action is one entry of an overlay's actions sequence.
type Action struct {
	// Index is the position in the actions sequence.
	Index int

	// Target is the action's target expression, empty when absent.
	Target string

	// Update is nil when the action has no update field or when the
	// update payload is not a mapping.
	Update *Update
}

// Update is an action's update payload viewed as path -> methods.
type Update struct {
	node  *yaml.Node
	Paths []*PathItem
}

// PathItem is one path entry of an update payload. Only the post method is
// decoded.
type PathItem struct {
	Path string

	// Post is nil when the methods map has no post entry.
	Post *Operation
}

// Operation is a post handler.
type Operation struct {
	node *yaml.Node

	// EntityOperation is the x-speakeasy-entity-operation tag, nil when
	// absent or null. A null tag is read as "no tag", so the operation is
	// left alone rather than failing the file.
	EntityOperation *string

	// Responses is nil when the operation has no responses field, or when
	// the field is not a mapping (see ResponsesErr).
	Responses *Responses

	// responsesErr records a responses field of the wrong shape. It only
	// matters once a rule selects the operation.
	responsesErr error
}

// ResponsesErr returns the shape error of the responses field, if any.
func (o *Operation) ResponsesErr() error {
	return o.responsesErr
}

// Tag returns the entity-operation tag, or "" when absent.
func (o *Operation) Tag() string {
	if o.EntityOperation == nil {
		return ""
	}
	return *o.EntityOperation
}

// Responses is a status-code -> response mapping backed by its YAML node.
type Responses struct {
	node *yaml.Node
}

// Codes returns the status codes in document order.
func (r *Responses) Codes() []string {
	codes := make([]string, 0, len(r.node.Content)/2)
	for i := 0; i+1 < len(r.node.Content); i += 2 {
		codes = append(codes, r.node.Content[i].Value)
	}
	return codes
}

// Has reports whether a response exists for code. Keys are compared by
// their scalar text, so an unquoted 409 key counts as present.
func (r *Responses) Has(code string) bool {
	return r.Get(code) != nil
}

// Get returns the response node for code, or nil.
func (r *Responses) Get(code string) *yaml.Node {
	_, v := lookup(r.node, code)
	return v
}

// Add appends a response for code. The new key copies the quoting style of
// the first existing key so the file stays consistent. Add does not check
// for an existing entry; callers guard with Has.
func (r *Responses) Add(code string, resp Response) {
	key := strNode(code)
	if len(r.node.Content) > 0 {
		key.Style = r.node.Content[0].Style & (yaml.SingleQuotedStyle | yaml.DoubleQuotedStyle)
	}
	r.node.Content = append(r.node.Content, key, resp.node())
}

// Response is a response object to be written into a responses map.
type Response struct {
	Description string
	Content     []MediaType
}

// MediaType is a content entry whose schema is a single $ref.
type MediaType struct {
	Name      string
	SchemaRef string
}

func (r Response) node() *yaml.Node {
	out := mappingNode()
	appendPair(out, "description", strNode(r.Description))
	if len(r.Content) > 0 {
		content := mappingNode()
		for _, mt := range r.Content {
			ref := strNode(mt.SchemaRef)
			ref.Style = yaml.SingleQuotedStyle
			schema := mappingNode()
			appendPair(schema, "$ref", ref)
			media := mappingNode()
			appendPair(media, "schema", schema)
			appendPair(content, mt.Name, media)
		}
		appendPair(out, "content", content)
	}
	return out
}

// DecodeUpdate builds the typed view of an update payload. A node that is
// not a mapping yields (nil, nil). Path entries whose value is not a
// mapping are skipped. field is used to locate shape errors.
func DecodeUpdate(n *yaml.Node, field string) (*Update, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, nil
	}

	u := &Update{node: n}
	for i := 0; i+1 < len(n.Content); i += 2 {
		path := n.Content[i].Value
		methods := resolve(n.Content[i+1])
		if methods.Kind != yaml.MappingNode {
			continue
		}

		item := &PathItem{Path: path}
		if _, post := lookup(methods, KeyPost); post != nil {
			op, err := decodeOperation(post, field+"."+path+"."+KeyPost)
			if err != nil {
				return nil, err
			}
			item.Post = op
		}
		u.Paths = append(u.Paths, item)
	}
	return u, nil
}

func decodeOperation(n *yaml.Node, field string) (*Operation, error) {
	n = resolve(n)
	if n.Kind != yaml.MappingNode {
		return nil, newShapeError(field, "mapping", n)
	}

	op := &Operation{node: n}
	if _, tag := lookup(n, KeyEntityOperation); tag != nil {
		tag = resolve(tag)
		switch {
		case tag.Kind == yaml.ScalarNode && isNull(tag):
		case tag.Kind == yaml.ScalarNode && tag.ShortTag() == "!!str":
			v := tag.Value
			op.EntityOperation = &v
		default:
			return nil, newShapeError(field+"."+KeyEntityOperation, "string", tag)
		}
	}

	if _, resp := lookup(n, KeyResponses); resp != nil {
		resp = resolve(resp)
		if resp.Kind != yaml.MappingNode {
			op.responsesErr = newShapeError(field+"."+KeyResponses, "mapping", resp)
			return op, nil
		}
		op.Responses = &Responses{node: resp}
	}
	return op, nil
}

func decodeActions(n *yaml.Node) ([]*Action, error) {
	n = resolve(n)
	if n.Kind != yaml.SequenceNode {
		return nil, newShapeError(KeyActions, "sequence", n)
	}

	actions := make([]*Action, 0, len(n.Content))
	for i, item := range n.Content {
		item = resolve(item)
		if item.Kind != yaml.MappingNode {
			continue
		}
		field := fmt.Sprintf("%s[%d]", KeyActions, i)
		a := &Action{Index: i}
		if _, t := lookup(item, KeyTarget); t != nil && t.Kind == yaml.ScalarNode {
			a.Target = t.Value
		}
		if _, upd := lookup(item, KeyUpdate); upd != nil {
			u, err := DecodeUpdate(upd, field+"."+KeyUpdate)
			if err != nil {
				return nil, err
			}
			a.Update = u
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// lookup finds key in a mapping node and returns the key and value nodes.
func lookup(m *yaml.Node, key string) (*yaml.Node, *yaml.Node) {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil, nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i], m.Content[i+1]
		}
	}
	return nil, nil
}

// resolve follows alias nodes to their anchor.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func strNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, strNode(key), value)
}
