package chatbot

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hyperengineering/protrack/internal/types"
)

// ActionData is the loosely typed payload of a chat action. Clients post form
// inputs, so numbers may arrive as strings.
type ActionData map[string]any

// String returns the value at key when it is a string, or "".
func (d ActionData) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Int reads an integer at key. present is false when the key is absent, null
// or an empty string. A present value that is not a whole number is an error.
func (d ActionData) Int(key string) (n int, present bool, err error) {
	v, ok := d[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	return toInt(v)
}

func toInt(v any) (int, bool, error) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return 0, true, fmt.Errorf("%v is not a whole number", x)
		}
		return int(x), true, nil
	case int:
		return x, true, nil
	case int64:
		return int(x), true, nil
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, true, fmt.Errorf("%s is not a whole number", x)
		}
		return int(i), true, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, true, fmt.Errorf("%q is not a whole number", x)
		}
		return i, true, nil
	default:
		return 0, true, fmt.Errorf("unsupported value %v", v)
	}
}

// day reads a 1-based day number. An absent day reports ok=false.
func (d ActionData) day() (day int, ok bool, err error) {
	n, present, err := d.Int("day")
	if err != nil {
		return 0, true, err
	}
	if !present {
		return 0, false, nil
	}
	if n < 1 {
		return 0, true, fmt.Errorf("day must be at least 1, got %d", n)
	}
	if n > types.MaxPlanDay {
		return 0, true, fmt.Errorf("day must be at most %d, got %d", types.MaxPlanDay, n)
	}
	return n, true, nil
}

// schedulable reports whether day is in range and dates on or before
// types.LastDate for r.
func schedulable(r *types.Roadmap, day int) bool {
	return day >= 1 && day <= types.MaxPlanDay && !r.StartDate.DayOffset(day).After(types.LastDate)
}
