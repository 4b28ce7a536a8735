package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/andresmejia3/faceenroll/internal/utils"
	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every enrolled user",
	Long:  "Drops the users table and recreates it empty. IDs start again at 1.",
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		if !resetYes && !confirm(reader, out, "⚠️  Are you sure you want to delete ALL enrolled users?") {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}

		fmt.Fprintln(out, "🗑️  Clearing Database...")
		if err := DB.Reset(cmd.Context()); err != nil {
			utils.ShowError("Failed to reset database", err, nil)
			return reported(err)
		}
		fmt.Fprintln(out, "✨ Reset Complete.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func confirm(r *bufio.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}
