package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToOptionalInt converts loosely typed input (JSON numbers, numeric strings,
// form values) to an optional int. nil, "" and JSON null yield nil.
func ToOptionalInt(val any) (*int, error) {
	switch v := val.(type) {
	case nil:
		return nil, nil
	case *int:
		return v, nil
	case int:
		return &v, nil
	case int64:
		return intPtr(int(v)), nil
	case int32:
		return intPtr(int(v)), nil
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("not a whole number: %v", v)
		}
		if v < math.MinInt || v >= math.MaxInt {
			return nil, fmt.Errorf("out of range: %v", v)
		}
		return intPtr(int(v)), nil
	case json.Number:
		i, err := strconv.Atoi(v.String())
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", v)
		}
		return &i, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", v)
		}
		return &i, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", val)
	}
}

// ToString converts various types to string.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case *int:
		if v == nil {
			return ""
		}
		return strconv.Itoa(*v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func intPtr(i int) *int { return &i }
