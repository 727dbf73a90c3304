package vdom

import "fmt"

// PatchOp identifies the mutation a patch applies.
type PatchOp string

const (
	PatchSetText     PatchOp = "set-text"
	PatchSetAttr     PatchOp = "set-attr"
	PatchRemoveAttr  PatchOp = "remove-attr"
	PatchReplaceNode PatchOp = "replace"
	PatchInsertNode  PatchOp = "insert"
	PatchRemoveNode  PatchOp = "remove"
	PatchMoveNode    PatchOp = "move"
)

// Patch is a single DOM mutation, addressed by node ID.
//
// Node carries the subtree for insert/replace operations; the editing
// session renders it to HTML before the patch goes over the wire.
type Patch struct {
	Op       PatchOp `json:"op"`
	NID      string  `json:"nid,omitempty"`
	ParentID string  `json:"parent,omitempty"`
	Index    int     `json:"index,omitempty"`
	Key      string  `json:"key,omitempty"`
	Value    string  `json:"value,omitempty"`
	Node     *VNode  `json:"-"`
	HTML     string  `json:"html,omitempty"`
}

// String returns a compact description for logging.
func (p Patch) String() string {
	return fmt.Sprintf("%s nid=%s key=%s", p.Op, p.NID, p.Key)
}

// NIDGenerator produces sequential node IDs ("n1", "n2", ...).
type NIDGenerator struct {
	counter uint64
}

// NewNIDGenerator creates a generator starting at n1.
func NewNIDGenerator() *NIDGenerator {
	return &NIDGenerator{}
}

// Next returns the next node ID.
func (g *NIDGenerator) Next() string {
	g.counter++
	return fmt.Sprintf("n%d", g.counter)
}
