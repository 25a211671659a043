// Package overlay models OpenAPI overlay documents and implements the
// 409 Conflict injection rule.
//
// An overlay is parsed into a yaml.v3 node tree and exposed through a typed
// view:
//
//	Document -> []*Action -> *Update -> []*PathItem -> *Operation -> *Responses
//
// Optional fields are pointers; a nil pointer means the key is absent. The
// typed view holds references to the underlying nodes, so a mutation made
// through it (Responses.Add) lands in the tree that Document.Encode writes
// back. Key order, scalar quoting style and comments of untouched parts of
// the document survive a round trip.
//
// The rule itself (ConflictRule.Apply) is a pure in-memory transformation:
// for every post operation whose entity-operation tag contains the create
// marker and which already has a responses map without a "409" entry, it
// appends the standard conflict response. Presence of the status key is the
// only idempotence guard.
package overlay
