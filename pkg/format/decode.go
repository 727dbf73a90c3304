package format

import (
	"encoding/json"
	"fmt"
)

// RulesFromProps decodes a props value (JSON shapes, as stored in the
// instance tree) into rules. A nil value yields no rules.
func RulesFromProps(v any) ([]Rule, error) {
	if v == nil {
		return nil, nil
	}
	if rules, ok := v.([]Rule); ok {
		return rules, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("format: encode rules: %w", err)
	}
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("format: decode rules: %w", err)
	}
	return rules, nil
}
