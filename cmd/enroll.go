package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/andresmejia3/faceenroll/internal/facerec"
	"github.com/andresmejia3/faceenroll/internal/utils"
	"github.com/spf13/cobra"
)

// stderr receives progress output. Tests swap it out.
var stderr io.Writer = os.Stderr

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Capture a face from the camera and store it under a name",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnroll(cmd)
	},
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command) error {
	// 1. Store is opened in Root PersistentPreRunE; load the model once
	model, child, err := loadFaceModel(Cfg, Log)
	if err != nil {
		utils.ShowError("Failed to load face model", err, child)
		return reported(err)
	}
	defer model.Close()

	// 2. Prompt, capture and insert
	e := &facerec.Enroller{
		Store:   DB,
		Capture: newCapture(Cfg, model, Log),
		In:      cmd.InOrStdin(),
		Out:     cmd.OutOrStdout(),
		Log:     Log,
	}
	user, err := e.Run(cmd.Context())
	if err != nil {
		return reportCaptureError(cmd, err, child)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ User enrolled successfully! (ID: %d, name: %q)\n", user.ID, user.Name)
	return nil
}

// reportCaptureError prints the diagnostic matching err and returns it marked
// as reported.
func reportCaptureError(cmd *cobra.Command, err error, child *utils.SafeCommand) error {
	var storeErr *facerec.StoreError
	switch {
	case cmd.Context().Err() != nil:
		fmt.Fprintln(cmd.ErrOrStderr(), "🛑 Interrupted.")
	case errors.Is(err, facerec.ErrNoName):
		fmt.Fprintln(cmd.ErrOrStderr(), "❌ No name entered.")
	case errors.Is(err, facerec.ErrCameraUnavailable):
		utils.ShowError("Camera not available", err, nil)
	case errors.Is(err, facerec.ErrNoFaceDetected):
		fmt.Fprintln(cmd.ErrOrStderr(), "❌ No face detected.")
	case errors.Is(err, facerec.ErrNoMatch):
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ %v\n", err)
	case errors.As(err, &storeErr):
		utils.ShowError("Database error", err, nil)
	default:
		utils.ShowError("Face analysis failed", err, child)
	}
	return reported(err)
}
