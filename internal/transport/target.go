package transport

import (
	"net"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
)

// TargetKind classifies what a user-supplied connection string points at.
type TargetKind int

const (
	// TargetMock selects the in-memory stub radio.
	TargetMock TargetKind = iota
	// TargetBLE selects a Bluetooth LE radio by MAC address.
	TargetBLE
	// TargetTCP selects a network radio by numeric IP address.
	TargetTCP
	// TargetSerial selects a radio on a serial device path.
	TargetSerial
)

func (k TargetKind) String() string {
	switch k {
	case TargetMock:
		return "mock"
	case TargetBLE:
		return "bluetooth"
	case TargetTCP:
		return "ip"
	case TargetSerial:
		return "serial"
	default:
		return "unknown"
	}
}

// Target is a parsed connection string.
type Target struct {
	Kind TargetKind

	// Address is the uppercased BLE MAC for TargetBLE.
	Address string
	// Host and Port are set for TargetTCP. Host is always a numeric
	// literal; DNS names are not accepted.
	Host string
	Port int
	// Device is the serial path for TargetSerial.
	Device string
}

// String returns the canonical spelling of the target for logging.
func (t Target) String() string {
	switch t.Kind {
	case TargetBLE:
		return t.Address
	case TargetTCP:
		return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	case TargetSerial:
		return t.Device
	default:
		return "mock"
	}
}

var bleAddressRe = regexp.MustCompile(`^[0-9a-fA-F]{2}(:[0-9a-fA-F]{2}){5}$`)

// ParseTarget classifies a connection string. Empty and the disable words
// select the stub radio; a MAC address selects BLE; a numeric IP (with
// optional scheme prefix and port suffix) selects TCP; anything else is
// treated as a serial device path.
func ParseTarget(raw string) Target {
	s := strings.TrimSpace(raw)

	switch strings.ToLower(s) {
	case "", "mock", "none", "null", "disabled":
		return Target{Kind: TargetMock}
	}

	if bleAddressRe.MatchString(s) {
		return Target{Kind: TargetBLE, Address: strings.ToUpper(s)}
	}

	if host, port, ok := parseNumericHostPort(s); ok {
		return Target{Kind: TargetTCP, Host: host, Port: port}
	}

	return Target{Kind: TargetSerial, Device: s}
}

// parseNumericHostPort accepts numeric IPv4/IPv6 literals with an optional
// scheme:// prefix and an optional :port suffix.
func parseNumericHostPort(s string) (string, int, bool) {
	if idx := strings.Index(s, "://"); idx >= 0 {
		s = s[idx+3:]
	}
	s = strings.TrimSuffix(s, "/")
	if s == "" {
		return "", 0, false
	}

	host := s
	port := DefaultIPPort

	if h, p, err := net.SplitHostPort(s); err == nil {
		parsed, convErr := strconv.Atoi(p)
		if convErr != nil || parsed < 1 || parsed > 65535 {
			return "", 0, false
		}
		host = h
		port = parsed
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return "", 0, false
	}

	return addr.String(), port, true
}
