package transport

import (
	"errors"
	"runtime"
	"strings"

	"github.com/godbus/dbus/v5"
	"tinygo.org/x/bluetooth"
)

func isDBusErrorName(err error, want string) bool {
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) && dbusErrPtr != nil && dbusErrPtr.Name == want {
		return true
	}

	var dbusErr dbus.Error

	return errors.As(err, &dbusErr) && dbusErr.Name == want
}

func isBenignStopScanError(err error) bool {
	if err == nil {
		return true
	}
	if isDBusErrorName(err, "org.bluez.Error.NotReady") {
		return true
	}
	if isDBusErrorName(err, "org.bluez.Error.Failed") && strings.Contains(strings.ToLower(err.Error()), "no discovery started") {
		return true
	}

	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "cancel") ||
		strings.Contains(msg, "stopped") ||
		strings.Contains(msg, "not scanning") ||
		strings.Contains(msg, "no scan in progress")
}

func enableAdapter(adapter *bluetooth.Adapter) error {
	if err := adapter.Enable(); err != nil {
		if isBenignEnableAdapterError(err) {
			return nil
		}

		return err
	}

	return nil
}

func isBenignEnableAdapterError(err error) bool {
	if err == nil || runtime.GOOS != "windows" {
		return false
	}

	// tinygo.org/x/bluetooth on Windows surfaces RoInitialize(S_FALSE=1) as
	// "Incorrect function.", even though COM is already initialized.
	msg := strings.TrimSpace(strings.ToLower(err.Error()))

	return msg == "incorrect function" || msg == "incorrect function."
}

func stopScan(adapter *bluetooth.Adapter) error {
	err := adapter.StopScan()
	if err != nil && !isBenignStopScanError(err) {
		return err
	}

	return nil
}

func normalizeScanError(err error) error {
	if err == nil || isBenignStopScanError(err) {
		return nil
	}

	return err
}
