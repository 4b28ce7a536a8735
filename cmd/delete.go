package cmd

import (
	"fmt"

	"github.com/andresmejia3/faceenroll/internal/utils"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <user_id>",
	Short: "Remove an enrolled user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		if err := DB.DeleteUser(cmd.Context(), id); err != nil {
			utils.ShowError("Failed to delete user", err, nil)
			return reported(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  User %d deleted\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
