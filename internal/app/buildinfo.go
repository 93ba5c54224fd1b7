package app

import (
	"fmt"
	"strings"
	"time"
)

// Version and BuildDate are stamped via ldflags in release builds; local
// builds run as "dev" with no date.
var (
	Version   = "dev"
	BuildDate = ""
)

func BuildVersion() string {
	version := strings.TrimSpace(Version)
	if version == "" {
		return "dev"
	}

	return version
}

// BuildDateYMD normalises the stamped build date to YYYY-MM-DD. Unparsable
// stamps pass through so the log still shows something useful.
func BuildDateYMD() string {
	raw := strings.TrimSpace(BuildDate)
	if raw == "" {
		return ""
	}

	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.Format(time.DateOnly)
	}
	if len(raw) >= len(time.DateOnly) {
		date := raw[:len(time.DateOnly)]
		if _, err := time.Parse(time.DateOnly, date); err == nil {
			return date
		}
	}

	return raw
}

// BuildVersionWithDate renders "version (date)" for the startup log.
func BuildVersionWithDate() string {
	version := BuildVersion()
	if date := BuildDateYMD(); date != "" {
		return fmt.Sprintf("%s (%s)", version, date)
	}

	return version
}
