// Package propsheet renders the schema-driven property panel for the
// selected instance and writes validated edits back into the store.
//
// Each property's editor is chosen by its schema entry. Values flow
// one way per edit: the panel parses and validates the raw editor
// text, then writes through the store; JSON editors keep invalid
// in-progress text on the side without touching the instance until it
// parses, and reformat it once it does.
package propsheet

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/forma-dev/forma/pkg/canvas"
	"github.com/forma-dev/forma/pkg/catalog"
)

// Panel edits one store's instances through their kinds' schemas.
type Panel struct {
	registry *catalog.Registry
	store    *canvas.Store
	logger   *slog.Logger

	// pending holds in-progress JSON editor text that does not parse
	// yet, keyed by instance and property. The user's keystrokes are
	// never discarded; the instance is updated only when the text
	// parses.
	pending map[pendingKey]string
}

type pendingKey struct {
	instanceID string
	propKey    string
}

// NewPanel creates a panel over the registry and store.
func NewPanel(registry *catalog.Registry, store *canvas.Store, logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Panel{
		registry: registry,
		store:    store,
		logger:   logger.With("component", "propsheet"),
		pending:  make(map[pendingKey]string),
	}
}

// ErrInvalidJSON reports JSON editor text that does not parse yet. The
// raw text is preserved and re-rendered; the instance is untouched.
type ErrInvalidJSON struct {
	Key string
	Err error
}

func (e *ErrInvalidJSON) Error() string {
	return fmt.Sprintf("propsheet: %s: invalid JSON: %v", e.Key, e.Err)
}

func (e *ErrInvalidJSON) Unwrap() error { return e.Err }

// Apply parses the raw editor text for one property and writes the
// validated value into the instance. The property must exist in the
// instance kind's schema.
func (p *Panel) Apply(instanceID, key, raw string) error {
	inst, ok := p.store.Find(instanceID)
	if !ok {
		return canvas.ErrNotFound
	}
	def, ok := p.definition(inst.Kind, key)
	if !ok {
		return fmt.Errorf("propsheet: no schema entry for %q on kind %q", key, inst.Kind)
	}

	// Handler code routes to the event handler table, not props.
	if event, ok := strings.CutPrefix(key, "eventHandlers."); ok {
		return p.store.SetEventHandler(instanceID, event, def.Label, raw)
	}

	value, err := p.parseValue(inst, def, raw)
	if err != nil {
		return err
	}
	return p.store.UpdateProp(instanceID, key, value)
}

// parseValue converts raw editor text per the editor type.
func (p *Panel) parseValue(inst *canvas.Instance, def catalog.PropertyDefinition, raw string) (any, error) {
	switch def.Editor {
	case catalog.EditorText, catalog.EditorTextArea, catalog.EditorColor,
		catalog.EditorCode, catalog.EditorQueryReference:
		return raw, nil

	case catalog.EditorNumber, catalog.EditorSlider:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("propsheet: %s: not a number: %q", def.Key, raw)
		}
		if def.Min != nil && n < *def.Min {
			n = *def.Min
		}
		if def.Max != nil && n > *def.Max {
			n = *def.Max
		}
		return n, nil

	case catalog.EditorBoolean:
		return raw == "true" || raw == "on", nil

	case catalog.EditorSelect:
		for _, opt := range def.Options {
			if opt.Value == raw {
				return raw, nil
			}
		}
		return nil, fmt.Errorf("propsheet: %s: %q is not an option", def.Key, raw)

	case catalog.EditorJSON, catalog.EditorFormattingRules, catalog.EditorColumnConfig:
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			// Preserve the user's in-progress text; withhold the update.
			p.pending[pendingKey{inst.ID, def.Key}] = raw
			return nil, &ErrInvalidJSON{Key: def.Key, Err: err}
		}
		delete(p.pending, pendingKey{inst.ID, def.Key})
		return value, nil

	default:
		return nil, fmt.Errorf("propsheet: unsupported editor type %q", def.Editor)
	}
}

// EditorText returns what the editor for a property should display:
// pending invalid JSON text when there is any, otherwise the current
// value serialized for its editor type (JSON values pretty-printed,
// the auto-reformat after a successful parse).
func (p *Panel) EditorText(inst *canvas.Instance, def catalog.PropertyDefinition) string {
	if raw, ok := p.pending[pendingKey{inst.ID, def.Key}]; ok {
		return raw
	}

	if event, ok := strings.CutPrefix(def.Key, "eventHandlers."); ok {
		return inst.EventHandlers[event].Code
	}

	value := valueAt(inst, def.Key)
	switch def.Editor {
	case catalog.EditorJSON, catalog.EditorFormattingRules, catalog.EditorColumnConfig:
		if value == nil {
			return ""
		}
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return ""
		}
		return string(data)
	case catalog.EditorBoolean:
		if b, _ := value.(bool); b {
			return "true"
		}
		return "false"
	default:
		if value == nil {
			return ""
		}
		if f, ok := value.(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return fmt.Sprint(value)
	}
}

// Visible evaluates a property's visibleWhen gate against the
// instance's current values.
func (p *Panel) Visible(inst *canvas.Instance, def catalog.PropertyDefinition) bool {
	if def.VisibleWhen == nil {
		return true
	}
	current := valueAt(inst, def.VisibleWhen.Key)
	return fmt.Sprint(current) == fmt.Sprint(def.VisibleWhen.Equals)
}

func (p *Panel) definition(kind, key string) (catalog.PropertyDefinition, bool) {
	k, ok := p.registry.Lookup(kind)
	if !ok {
		return catalog.PropertyDefinition{}, false
	}
	for _, def := range k.PropertySchema {
		if def.Key == key {
			return def, true
		}
	}
	return catalog.PropertyDefinition{}, false
}

// valueAt reads a dotted instance path; the mirror of the store's
// UpdateProp.
func valueAt(inst *canvas.Instance, path string) any {
	head, rest, _ := strings.Cut(path, ".")
	switch head {
	case "label":
		return inst.Label
	case "width":
		return inst.Width
	case "height":
		return inst.Height
	case "position":
		switch rest {
		case "x":
			return inst.Position.X
		case "y":
			return inst.Position.Y
		}
		return nil
	case "props":
		var current any = inst.Props
		for _, part := range strings.Split(rest, ".") {
			m, ok := current.(map[string]any)
			if !ok {
				return nil
			}
			current = m[part]
		}
		return current
	default:
		return nil
	}
}
