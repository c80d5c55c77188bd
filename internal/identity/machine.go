package identity

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/coreos/go-systemd/v22/util"
	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// deviceNamespace scopes device ids derived from machine ids.
var deviceNamespace = uuid.MustParse("5b6e2f0c-3f5a-4c1e-9d7b-6a2e1f0e4c3d")

// DeviceIDFromMachineID derives a stable device id from a machine id. The
// same machine id always produces the same device id.
func DeviceIDFromMachineID(machineID string) string {
	return uuid.NewSHA1(deviceNamespace, []byte(strings.TrimSpace(machineID))).String()
}

// MachineDeviceID derives the device id of the running machine from
// /etc/machine-id.
func MachineDeviceID() (string, error) {
	machineID, err := util.GetMachineID()
	if err != nil {
		return "", fmt.Errorf("cannot read machine id: %w", err)
	}
	return DeviceIDFromMachineID(machineID), nil
}

// SystemHostname returns the static hostname reported by systemd-hostnamed.
// When the system bus is unavailable, the kernel node name is used instead.
func SystemHostname() (string, error) {
	hostname, err := hostnamedHostname()
	if err == nil {
		return hostname, nil
	}
	slog.Debug("cannot query hostnamed, falling back to uname", "error", err)

	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("cannot get hostname: %w", err)
	}
	return unix.ByteSliceToString(uts.Nodename[:]), nil
}

func hostnamedHostname() (string, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return "", err
	}
	obj := conn.Object("org.freedesktop.hostname1", "/org/freedesktop/hostname1")
	value, err := obj.GetProperty("org.freedesktop.hostname1.Hostname")
	if err != nil {
		return "", err
	}
	hostname, ok := value.Value().(string)
	if !ok || hostname == "" {
		return "", fmt.Errorf("unexpected hostname value %v", value)
	}
	return hostname, nil
}
