//go:build !linux

package transport

import "tinygo.org/x/bluetooth"

func resolveAdapter(_ string) *bluetooth.Adapter {
	// tinygo.org/x/bluetooth exposes custom adapter IDs via NewAdapter only
	// on Linux. Elsewhere, use the default adapter.
	return bluetooth.DefaultAdapter
}
