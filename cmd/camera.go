package cmd

import (
	"fmt"

	"github.com/andresmejia3/faceenroll/internal/utils"
	"github.com/spf13/cobra"
)

var cameraCmd = &cobra.Command{
	Use:         "camera",
	Short:       "Grab one frame to check that the camera works",
	Annotations: map[string]string{noStore: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		open := openCamera(Cfg, Log)

		dev, err := open(cmd.Context())
		if err != nil {
			utils.ShowError("Camera not available", err, nil)
			return reported(err)
		}
		img, err := dev.Read(cmd.Context())
		if relErr := dev.Release(); relErr != nil {
			Log.WithError(relErr).Debug("camera release")
		}
		if err != nil {
			utils.ShowError("Camera returned no frame", err, nil)
			return reported(err)
		}

		size := img.Bounds().Size()
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Camera %s OK: %dx%d frame\n", Cfg.Camera.Device, size.X, size.Y)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cameraCmd)
}
