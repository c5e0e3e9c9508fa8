package category

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexInt decodes from a JSON number or a numeric string. Browser forms post
// numeric inputs as strings; an empty string decodes to zero.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", s)
		}
		*n = FlexInt(v)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("expected an integer: %w", err)
	}
	if f != float64(int(f)) {
		return fmt.Errorf("expected an integer, got %v", f)
	}
	*n = FlexInt(int(f))
	return nil
}

// Named is a list entry carrying a name, as used for syllabus chapters,
// milestones, goals and sub-skills.
type Named struct {
	Name string `json:"name"`
}

func names(items []Named) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it.Name); s != "" {
			out = append(out, s)
		}
	}
	return out
}
