package vdom

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Diff compares two VNode trees and returns the patches needed to
// transform prev into next. Matched next nodes inherit the NID of their
// prev counterpart so subsequent diffs stay addressable.
func Diff(prev, next *VNode) []Patch {
	var patches []Patch
	diff(prev, next, "", &patches)
	return patches
}

// diff recursively compares nodes and appends patches. parentNID is the
// NID of the enclosing element, used for text patches that have no NID
// of their own.
func diff(prev, next *VNode, parentNID string, patches *[]Patch) {
	if prev == nil && next == nil {
		return
	}

	// Node added (handled by parent via InsertNode)
	if prev == nil {
		return
	}

	// Node removed
	if next == nil {
		*patches = append(*patches, Patch{Op: PatchRemoveNode, NID: prev.NID})
		return
	}

	// Different types - replace
	if prev.Kind != next.Kind {
		*patches = append(*patches, Patch{Op: PatchReplaceNode, NID: prev.NID, Node: next})
		return
	}

	switch prev.Kind {
	case KindText:
		diffText(prev, next, parentNID, patches)
	case KindElement:
		diffElement(prev, next, patches)
	case KindFragment:
		next.NID = prev.NID
		diffChildren(prev, next, parentNID, patches)
	case KindRaw:
		diffRaw(prev, next, parentNID, patches)
	}
}

// diffText compares text nodes. The patch targets the parent element's
// NID when the text node has none; the client updates textContent.
func diffText(prev, next *VNode, parentNID string, patches *[]Patch) {
	next.NID = prev.NID

	if prev.Text != next.Text {
		target := prev.NID
		if target == "" {
			target = parentNID
		}
		if target != "" {
			*patches = append(*patches, Patch{Op: PatchSetText, NID: target, Value: next.Text})
		}
	}
}

// diffElement compares element nodes.
func diffElement(prev, next *VNode, patches *[]Patch) {
	// Different tag - replace entire node
	if prev.Tag != next.Tag {
		*patches = append(*patches, Patch{Op: PatchReplaceNode, NID: prev.NID, Node: next})
		return
	}

	next.NID = prev.NID
	diffProps(prev, next, patches)
	diffChildren(prev, next, prev.NID, patches)
}

// diffRaw compares raw HTML nodes. Raw content changes replace the node.
func diffRaw(prev, next *VNode, parentNID string, patches *[]Patch) {
	next.NID = prev.NID

	if prev.Text != next.Text {
		target := prev.NID
		if target == "" {
			target = parentNID
		}
		if target != "" {
			*patches = append(*patches, Patch{Op: PatchReplaceNode, NID: target, Node: next})
		}
	}
}

// diffProps compares and patches attributes.
func diffProps(prev, next *VNode, patches *[]Patch) {
	for key, prevVal := range prev.Props {
		if isEventProp(key) || key == "key" {
			continue // events are rewired on re-render, not patched
		}

		nextVal, exists := next.Props[key]
		if !exists {
			*patches = append(*patches, Patch{Op: PatchRemoveAttr, NID: prev.NID, Key: key})
		} else if !propsEqual(prevVal, nextVal) {
			*patches = append(*patches, Patch{Op: PatchSetAttr, NID: prev.NID, Key: key, Value: propToString(nextVal)})
		}
	}

	for key, nextVal := range next.Props {
		if isEventProp(key) || key == "key" {
			continue
		}

		if _, exists := prev.Props[key]; !exists {
			*patches = append(*patches, Patch{Op: PatchSetAttr, NID: prev.NID, Key: key, Value: propToString(nextVal)})
		}
	}
}

// diffChildren compares and patches child nodes.
func diffChildren(prev, next *VNode, parentNID string, patches *[]Patch) {
	if hasKeys(prev.Children) || hasKeys(next.Children) {
		diffKeyedChildren(prev, prev.Children, next.Children, parentNID, patches)
	} else {
		diffUnkeyedChildren(prev, prev.Children, next.Children, parentNID, patches)
	}
}

// diffUnkeyedChildren handles children without keys using positional matching.
func diffUnkeyedChildren(parent *VNode, prev, next []*VNode, parentNID string, patches *[]Patch) {
	maxLen := len(prev)
	if len(next) > maxLen {
		maxLen = len(next)
	}

	for i := 0; i < maxLen; i++ {
		var prevChild, nextChild *VNode
		if i < len(prev) {
			prevChild = prev[i]
		}
		if i < len(next) {
			nextChild = next[i]
		}

		switch {
		case prevChild == nil && nextChild != nil:
			*patches = append(*patches, Patch{Op: PatchInsertNode, ParentID: parent.NID, Index: i, Node: nextChild})
		case prevChild != nil && nextChild == nil:
			*patches = append(*patches, Patch{Op: PatchRemoveNode, NID: prevChild.NID})
		default:
			diff(prevChild, nextChild, parentNID, patches)
		}
	}
}

// diffKeyedChildren handles children with keys for stable reordering.
func diffKeyedChildren(parent *VNode, prev, next []*VNode, parentNID string, patches *[]Patch) {
	prevKeyMap := make(map[string]int)
	for i, child := range prev {
		if key := getKey(child); key != "" {
			prevKeyMap[key] = i
		}
	}

	matched := make(map[int]bool)

	for nextIdx, nextChild := range next {
		key := getKey(nextChild)

		if key == "" {
			// Unkeyed node in keyed list - treat as insert
			*patches = append(*patches, Patch{Op: PatchInsertNode, ParentID: parent.NID, Index: nextIdx, Node: nextChild})
			continue
		}

		prevIdx, exists := prevKeyMap[key]
		if !exists {
			*patches = append(*patches, Patch{Op: PatchInsertNode, ParentID: parent.NID, Index: nextIdx, Node: nextChild})
			continue
		}

		matched[prevIdx] = true
		prevChild := prev[prevIdx]

		if prevIdx != nextIdx {
			*patches = append(*patches, Patch{Op: PatchMoveNode, NID: prevChild.NID, ParentID: parent.NID, Index: nextIdx})
		}

		diff(prevChild, nextChild, parentNID, patches)
	}

	for i, prevChild := range prev {
		if !matched[i] {
			*patches = append(*patches, Patch{Op: PatchRemoveNode, NID: prevChild.NID})
		}
	}
}

// getKey extracts the reconciliation key from a node.
func getKey(node *VNode) string {
	if node == nil {
		return ""
	}
	if node.Key != "" {
		return node.Key
	}
	if node.Props == nil {
		return ""
	}
	if key, ok := node.Props["key"].(string); ok {
		return key
	}
	return ""
}

// hasKeys returns true if any child has a key.
func hasKeys(children []*VNode) bool {
	for _, child := range children {
		if getKey(child) != "" {
			return true
		}
	}
	return false
}

// isEventProp returns true if the key is an event handler (starts with "on").
// Case-insensitive to catch onclick, ONCLICK, onClick, etc.
func isEventProp(key string) bool {
	return len(key) > 2 && strings.EqualFold(key[:2], "on")
}

// propsEqual compares two prop values for equality.
func propsEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	// Fallback to reflect for complex types (style maps etc.)
	return reflect.DeepEqual(a, b)
}

// propToString converts a prop value to a string for the patch.
func propToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case map[string]string:
		return StyleString(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}
