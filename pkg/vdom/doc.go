// Package vdom defines the virtual node tree that the rendering dispatcher
// produces and the HTML renderer and live editing session consume.
//
// A VNode tree is plain data: elements, text, fragments, and raw HTML.
// Diff compares two trees and emits JSON-serializable patches keyed by
// node ID, which the editor client applies in place.
package vdom
