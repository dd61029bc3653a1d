// Package admin implements the administrative text protocol described
// for the AoE target: a single line of at most 100 bytes and 5
// whitespace-separated tokens, parsed into a mutation against a
// Registry. It is consumed by the Control Listener (over a
// Unix-domain socket) and by the Admin CLI (as a client of the same
// socket), so the grammar lives in exactly one place.
package admin

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"

	aoe "github.com/yang123vc/aoetargetd"
)

// maxLineLen and maxTokens bound a single administrative command.
const (
	maxLineLen = 100
	maxTokens  = 5
)

// ErrInvalidArgument is returned for any malformed command: too long,
// too many tokens, unknown verb, or an argument that fails to parse.
var ErrInvalidArgument = errors.New("admin: invalid argument")

// Execute parses and runs a single administrative command line
// against reg. On success it returns the number of bytes consumed
// (len(line)); on failure it returns ErrInvalidArgument or a wrapped
// form of it.
func Execute(reg *aoe.Registry, line string) (int, error) {
	if len(line) > maxLineLen {
		return 0, ErrInvalidArgument
	}

	fields := strings.Fields(line)
	if len(fields) == 0 || len(fields) > maxTokens {
		return 0, ErrInvalidArgument
	}

	var err error
	switch fields[0] {
	case "add":
		err = doAdd(reg, fields[1:])
	case "del":
		err = doDel(reg, fields[1:])
	case "hostmask":
		err = doMask(reg, fields[1:], reg.AddMask)
	case "rmmask":
		err = doMask(reg, fields[1:], reg.RemoveMask)
	default:
		err = ErrInvalidArgument
	}

	if err != nil {
		return 0, err
	}
	return len(line), nil
}

// doAdd implements `add <device-path> <shelf> <slot> [<interface>]`.
// The volume's name is derived from the backing file's base name; the
// wire protocol carries no separate name field.
func doAdd(reg *aoe.Registry, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return ErrInvalidArgument
	}

	path := args[0]
	shelf, slot, err := parseShelfSlot(args[1], args[2])
	if err != nil {
		return err
	}

	ifindex, err := parseIfindex(args, 3)
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	_, err = reg.Register(name, shelf, slot, ifindex, path, false)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}

// doDel implements `del <device-path> <shelf> <slot> [<interface>]`.
// device-path is accepted for symmetry with add but is not consulted:
// (shelf, slot, ifindex) alone identifies the volume to remove.
func doDel(reg *aoe.Registry, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return ErrInvalidArgument
	}

	shelf, slot, err := parseShelfSlot(args[1], args[2])
	if err != nil {
		return err
	}

	ifindex, err := parseIfindex(args, 3)
	if err != nil {
		return err
	}

	if err := reg.Unregister(shelf, slot, ifindex); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}

// doMask implements `hostmask <shelf> <slot> <mac>` and
// `rmmask <shelf> <slot> <mac>`, which share a grammar and differ only
// in which Registry method applies the change.
func doMask(reg *aoe.Registry, args []string, apply func(uint16, uint8, net.HardwareAddr) error) error {
	if len(args) != 3 {
		return ErrInvalidArgument
	}

	shelf, slot, err := parseShelfSlot(args[0], args[1])
	if err != nil {
		return err
	}

	mac, err := net.ParseMAC(args[2])
	if err != nil {
		return ErrInvalidArgument
	}

	if err := apply(shelf, slot, mac); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}

// parseShelfSlot parses decimal or 0x-prefixed hex shelf and slot
// tokens, rejecting a slot outside [0, 255].
func parseShelfSlot(shelfTok, slotTok string) (uint16, uint8, error) {
	shelf, err := strconv.ParseUint(shelfTok, 0, 16)
	if err != nil {
		return 0, 0, ErrInvalidArgument
	}

	slot, err := strconv.ParseUint(slotTok, 0, 16)
	if err != nil || slot > 255 {
		return 0, 0, ErrInvalidArgument
	}

	return uint16(shelf), uint8(slot), nil
}

// Status renders the human-readable status dump: one line per Volume
// of "name shelf slot interface", followed by a blank line and one
// line per ACL entry of "shelf slot mac".
func Status(reg *aoe.Registry) string {
	var b strings.Builder

	volumes := reg.All()
	for _, v := range volumes {
		fmt.Fprintf(&b, "%s %d %d %s\n", v.Name, v.Shelf, v.Slot, ifaceName(v.Ifindex))
	}

	b.WriteByte('\n')

	for _, v := range volumes {
		for _, mac := range v.ACL.Entries() {
			fmt.Fprintf(&b, "%d %d %s\n", v.Shelf, v.Slot, mac)
		}
	}

	return b.String()
}

func ifaceName(ifindex int) string {
	if ifindex == 0 {
		return "*"
	}
	ifi, err := net.InterfaceByIndex(ifindex)
	if err != nil {
		return strconv.Itoa(ifindex)
	}
	return ifi.Name
}

// parseIfindex resolves an optional trailing interface-name token at
// position idx into its OS interface index, or 0 if the token is
// absent (accept on any interface).
func parseIfindex(args []string, idx int) (int, error) {
	if idx >= len(args) {
		return 0, nil
	}

	ifi, err := net.InterfaceByName(args[idx])
	if err != nil {
		return 0, ErrInvalidArgument
	}
	return ifi.Index, nil
}
