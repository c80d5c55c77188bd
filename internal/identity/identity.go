// Package identity discovers the facts about a device that are only known at
// process start: its device id, the IoT hub it belongs to, and whether the
// cluster grants it read access to nodes. These facts are layered over the
// loaded settings with Apply.
package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"git.sr.ht/~spc/go-ini"

	"github.com/edge-runtime/edged/internal/kube"
)

// DefaultIdentityPath is where provisioning records the device identity.
const DefaultIdentityPath = "/var/lib/aziot/edged/identity"

// Identity is the set of identity facts discovered at startup. Empty strings
// and a nil NodesRBAC mean "not discovered".
type Identity struct {
	DeviceID       string
	IoTHubHostname string
	NodesRBAC      *bool
}

type identityFile struct {
	DeviceID       string `ini:"device_id"`
	IoTHubHostname string `ini:"iot_hub_hostname"`
	HasNodesRBAC   string `ini:"has_nodes_rbac"`
}

// ReadFile reads the identity file at path. A missing file is not an error
// and yields an empty Identity.
func ReadFile(path string) (Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("identity file not found", "path", path)
			return Identity{}, nil
		}
		return Identity{}, fmt.Errorf("cannot read identity file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (Identity, error) {
	var file identityFile
	opts := ini.Options{AllowNumberSignComments: true}
	if err := ini.UnmarshalWithOptions(normalize(data), &file, opts); err != nil {
		return Identity{}, fmt.Errorf("cannot parse identity file: %w", err)
	}

	id := Identity{
		DeviceID:       file.DeviceID,
		IoTHubHostname: file.IoTHubHostname,
	}
	if file.HasNodesRBAC != "" {
		rbac, err := strconv.ParseBool(file.HasNodesRBAC)
		if err != nil {
			return Identity{}, fmt.Errorf("invalid has_nodes_rbac value %q: %w", file.HasNodesRBAC, err)
		}
		id.NodesRBAC = &rbac
	}
	return id, nil
}

// normalize strips the whitespace around the assignment of each property
// line, since go-ini keeps it as part of the key and value.
func normalize(data []byte) []byte {
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == "", line[0] == '#', line[0] == ';', line[0] == '[':
		default:
			if key, value, ok := strings.Cut(line, "="); ok {
				line = strings.TrimSpace(key) + "=" + strings.TrimSpace(value)
			}
		}
		lines[i] = line
	}
	return []byte(strings.Join(lines, "\n"))
}

// Apply layers the discovered facts over s: device id first, then IoT hub
// hostname, then nodes RBAC. Facts that were not discovered leave s as is.
func Apply(s kube.Settings, id Identity) kube.Settings {
	if id.DeviceID != "" {
		s = s.WithDeviceID(id.DeviceID)
	}
	if id.IoTHubHostname != "" {
		s = s.WithIoTHubHostname(id.IoTHubHostname)
	}
	if id.NodesRBAC != nil {
		s = s.WithNodesRBAC(*id.NodesRBAC)
	}
	return s
}
