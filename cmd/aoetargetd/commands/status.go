package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running daemon's volumes and access lists",
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := send("status")
		if err != nil {
			return err
		}

		fmt.Print(reply)
		return nil
	},
}
