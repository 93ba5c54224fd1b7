package transport

import (
	"path/filepath"
	"sort"
)

// fallbackSerialDevice is always tried even when no device matched a glob;
// on most Linux boards the radio enumerates there.
const fallbackSerialDevice = "/dev/ttyACM0"

var serialGlobPatterns = []string{
	"/dev/ttyACM*",
	"/dev/ttyUSB*",
	"/dev/tty.usbmodem*",
	"/dev/tty.usbserial*",
	"/dev/cu.usbmodem*",
	"/dev/cu.usbserial*",
}

// DiscoverSerialCandidates globs the usual serial device locations and
// returns a sorted, deduplicated candidate list with the fallback device
// appended.
func DiscoverSerialCandidates() []string {
	return discoverSerialCandidates(filepath.Glob)
}

func discoverSerialCandidates(glob func(string) ([]string, error)) []string {
	seen := make(map[string]struct{})
	candidates := make([]string, 0, 4)

	for _, pattern := range serialGlobPatterns {
		matches, err := glob(pattern)
		if err != nil {
			continue
		}
		for _, match := range matches {
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}
			candidates = append(candidates, match)
		}
	}

	sort.Strings(candidates)

	if _, dup := seen[fallbackSerialDevice]; !dup {
		candidates = append(candidates, fallbackSerialDevice)
	}

	return candidates
}
