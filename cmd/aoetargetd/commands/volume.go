package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yang123vc/aoetargetd/internal/config"
)

var addCmd = &cobra.Command{
	Use:   "add <path> <shelf> <slot> [interface]",
	Short: "Register a backing file as a volume",
	Args:  cobra.RangeArgs(3, 4),
	RunE:  runAdd,
}

// runAdd registers the volume against the running daemon over the
// control socket, then persists the same volume into the config file
// so it survives the daemon's next restart. The control-socket
// registration is what actually takes effect immediately; a failure
// to persist is reported as a warning rather than a command failure,
// since the volume is already live.
func runAdd(cmd *cobra.Command, args []string) error {
	reply, err := send("add " + strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Print(reply)

	if err := persistAdd(args); err != nil {
		fmt.Fprintf(os.Stderr, "aoetargetd: warning: config file not updated: %v\n", err)
	}
	return nil
}

func persistAdd(args []string) error {
	shelf, slot, err := parseShelfSlot(args[1], args[2])
	if err != nil {
		return err
	}

	vc := config.VolumeConfig{Path: args[0], Shelf: shelf, Slot: slot}
	if len(args) == 4 {
		vc.Interface = args[3]
	}

	path := configFilePath()
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg.Volumes = append(cfg.Volumes, vc)
	return config.Save(cfg, path)
}

func configFilePath() string {
	if p := GetConfigFile(); p != "" {
		return p
	}
	return config.DefaultConfigPath
}

var delCmd = &cobra.Command{
	Use:   "del <path> <shelf> <slot> [interface]",
	Short: "Unregister a volume",
	Args:  cobra.RangeArgs(3, 4),
	RunE:  runLineCommand("del"),
}

var hostmaskCmd = &cobra.Command{
	Use:   "hostmask <shelf> <slot> <mac>",
	Short: "Add a MAC address to a volume's access list",
	Args:  cobra.ExactArgs(3),
	RunE:  runLineCommand("hostmask"),
}

var rmmaskCmd = &cobra.Command{
	Use:   "rmmask <shelf> <slot> <mac>",
	Short: "Remove a MAC address from a volume's access list",
	Args:  cobra.ExactArgs(3),
	RunE:  runLineCommand("rmmask"),
}

// runLineCommand builds the single admin-protocol line verb+args and
// sends it to the running daemon's control socket, printing whatever
// it replies.
func runLineCommand(verb string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		line := verb + " " + strings.Join(args, " ")

		reply, err := send(line)
		if err != nil {
			return err
		}

		fmt.Print(reply)
		return nil
	}
}
