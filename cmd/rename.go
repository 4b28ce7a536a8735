package cmd

import (
	"fmt"
	"strconv"

	"github.com/andresmejia3/faceenroll/internal/utils"
	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <user_id> <name>",
	Short: "Change the name of an enrolled user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		return runRename(cmd, id, args[1])
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}

func runRename(cmd *cobra.Command, id int64, name string) error {
	// Database is initialized in Root PersistentPreRunE
	if err := DB.RenameUser(cmd.Context(), id, name); err != nil {
		utils.ShowError("Failed to rename user", err, nil)
		return reported(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ User %d renamed to '%s'\n", id, name)
	return nil
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid user ID %q", s)
	}
	return id, nil
}
