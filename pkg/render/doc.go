// Package render turns vdom trees into HTML.
//
// The Renderer walks a VNode tree, escapes text and attributes, assigns
// node IDs to elements, and collects event handlers keyed "nid_event"
// for the editing session to wire. Document wraps a rendered body in a
// full HTML page shell; it is shared by the live editor and the export
// generator so both produce the same markup for the same tree.
package render
