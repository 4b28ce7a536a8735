package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/andresmejia3/faceenroll/internal/utils"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all enrolled users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command) error {
	users, err := DB.ListUsers(cmd.Context())
	if err != nil {
		utils.ShowError("Failed to list users", err, nil)
		return reported(err)
	}

	out := cmd.OutOrStdout()
	if len(users) == 0 {
		fmt.Fprintln(out, "No users enrolled.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDIMS")
	fmt.Fprintln(w, "--\t----\t----")

	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%d\n", u.ID, u.Name, len(u.Embedding))
	}
	return w.Flush()
}
