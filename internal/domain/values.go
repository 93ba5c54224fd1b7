package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// CoerceInt converts loosely typed packet values to an integer. Booleans map
// to 0/1, finite floats truncate toward zero, strings parse as decimal (or
// hex with an 0x prefix) with a float fallback. NaN and infinities are
// rejected.
func CoerceInt(v any) (int64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case bool:
		if val {
			return 1, true
		}

		return 0, true
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint:
		return coerceUint64(uint64(val))
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		return coerceUint64(val)
	case float32:
		return truncateFloat(float64(val))
	case float64:
		return truncateFloat(val)
	case json.Number:
		return coerceIntString(val.String())
	case []byte:
		return coerceIntString(string(val))
	case string:
		return coerceIntString(val)
	default:
		return 0, false
	}
}

// CoerceFloat converts loosely typed packet values to a finite float.
func CoerceFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case bool:
		if val {
			return 1, true
		}

		return 0, true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return finiteFloat(float64(val))
	case float64:
		return finiteFloat(val)
	case json.Number:
		return coerceFloatString(val.String())
	case []byte:
		return coerceFloatString(string(val))
	case string:
		return coerceFloatString(val)
	default:
		return 0, false
	}
}

// Iso renders a unix timestamp as UTC ISO-8601 with a Z suffix. Fractional
// seconds keep up to four digits with trailing zeros trimmed.
func Iso(ts float64) string {
	if math.IsNaN(ts) || math.IsInf(ts, 0) {
		return ""
	}

	whole := math.Floor(ts)
	base := time.Unix(int64(whole), 0).UTC()
	suffix := ""

	if frac := ts - whole; frac > 0 {
		rendered := strconv.FormatFloat(frac, 'f', 4, 64)
		rendered = strings.TrimRight(rendered, "0")
		switch {
		case rendered == "0.":
			// Rounded away; keep whole seconds.
		case strings.HasPrefix(rendered, "1"):
			base = base.Add(time.Second)
		default:
			suffix = rendered[1:]
		}
	}

	return base.Format("2006-01-02T15:04:05") + suffix + "Z"
}

func coerceIntString(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if n, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
			return coerceUint64(n)
		}
	} else if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return truncateFloat(f)
	}

	return 0, false
}

func coerceFloatString(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return finiteFloat(f)
}

func coerceUint64(v uint64) (int64, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}

	return int64(v), true
}

func truncateFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false
	}

	return int64(f), true
}

func finiteFloat(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}
