package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BroadcastNodeNum is the node number used for broadcast packets.
const BroadcastNodeNum = ^uint32(0)

// BroadcastAlias is the textual id used for broadcast destinations.
const BroadcastAlias = "^all"

// FormatNodeNum renders a node number in the canonical !%08x form.
func FormatNodeNum(num uint32) string {
	return fmt.Sprintf("!%08x", num)
}

// CanonicalNodeID normalises a loosely typed node reference into the
// canonical !%08x id. Numeric inputs are masked to 32 bits. Strings accept
// the !hex, 0x-hex, bare hex and decimal spellings; values starting with ^
// (broadcast aliases) pass through unchanged.
func CanonicalNodeID(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return canonicalFromString(val)
	case []byte:
		return canonicalFromString(string(val))
	default:
		num, ok := nodeNumFromNumeric(v)
		if !ok {
			return "", false
		}

		return FormatNodeNum(uint32(num & math.MaxUint32)), true
	}
}

// NodeNumFromID resolves the same inputs as CanonicalNodeID but returns the
// parsed integer without masking. Broadcast aliases carry no number.
func NodeNumFromID(v any) (int64, bool) {
	switch val := v.(type) {
	case string:
		return nodeNumFromString(val)
	case []byte:
		return nodeNumFromString(string(val))
	default:
		return nodeNumFromNumeric(v)
	}
}

func canonicalFromString(raw string) (string, bool) {
	alias, num, ok := parseNodeString(raw)
	if !ok {
		return "", false
	}
	if alias != "" {
		return alias, true
	}

	return FormatNodeNum(uint32(num & math.MaxUint32)), true
}

// parseNodeString returns either a pass-through alias or a parsed node
// number. Decimal digit strings parse as decimal, everything else as hex
// after stripping an optional ! or 0x prefix.
func parseNodeString(raw string) (alias string, num int64, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", 0, false
	}
	if strings.HasPrefix(s, "^") {
		return s, 0, true
	}

	if isDecimalDigits(s) {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil || n > math.MaxInt64 {
			return "", 0, false
		}

		return "", int64(n), true
	}

	body := s
	switch {
	case strings.HasPrefix(body, "!"):
		body = body[1:]
	case strings.HasPrefix(body, "0x"), strings.HasPrefix(body, "0X"):
		body = body[2:]
	}
	if body == "" {
		return "", 0, false
	}

	n, err := strconv.ParseUint(body, 16, 64)
	if err != nil || n > math.MaxInt64 {
		return "", 0, false
	}

	return "", int64(n), true
}

func nodeNumFromString(raw string) (int64, bool) {
	alias, num, ok := parseNodeString(raw)
	if !ok || alias != "" {
		return 0, false
	}

	return num, true
}

func nodeNumFromNumeric(v any) (int64, bool) {
	num, ok := CoerceInt(v)
	if !ok || num < 0 {
		return 0, false
	}

	return num, true
}

func isDecimalDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
