package commands

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
)

// volumeName derives a Volume's display name from its backing file
// path, matching the admin protocol's own convention (internal/admin
// carries no separate name field either).
func volumeName(path string) string {
	return filepath.Base(path)
}

// interfaceIndex resolves a network interface name to its OS index.
func interfaceIndex(name string) (int, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return 0, err
	}
	return ifi.Index, nil
}

// parseShelfSlot parses a shelf/slot pair the same decimal-or-hex way
// the Control Listener's admin protocol does, so the config file the
// CLI persists to always agrees with what the daemon just registered.
func parseShelfSlot(shelfTok, slotTok string) (uint16, uint8, error) {
	shelf, err := strconv.ParseUint(shelfTok, 0, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid shelf %q: %w", shelfTok, err)
	}

	slot, err := strconv.ParseUint(slotTok, 0, 16)
	if err != nil || slot > 255 {
		return 0, 0, fmt.Errorf("invalid slot %q", slotTok)
	}

	return uint16(shelf), uint8(slot), nil
}

// parseMAC parses s as a MAC address, returning nil on failure so the
// resulting ACL entry simply never matches rather than panicking at
// startup; Config.Validate already rejected unparseable entries.
func parseMAC(s string) net.HardwareAddr {
	mac, err := net.ParseMAC(s)
	if err != nil {
		return nil
	}
	return mac
}
