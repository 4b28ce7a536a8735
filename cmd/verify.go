package cmd

import (
	"errors"
	"fmt"

	"github.com/andresmejia3/faceenroll/internal/embedding"
	"github.com/andresmejia3/faceenroll/internal/facerec"
	"github.com/andresmejia3/faceenroll/internal/utils"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Capture a face and report which enrolled user it matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify(cmd)
	},
}

func init() {
	verifyCmd.Flags().Float64("threshold", facerec.DefaultThreshold, "maximum distance for a match")
	verifyCmd.Flags().String("metric", "", "distance metric: euclidean or cosine (default euclidean)")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command) error {
	model, child, err := loadFaceModel(Cfg, Log)
	if err != nil {
		utils.ShowError("Failed to load face model", err, child)
		return reported(err)
	}
	defer model.Close()

	// Validate already rejected unknown metrics
	metric, _ := embedding.MetricByName(Cfg.Verify.Metric)
	v := &facerec.Verifier{
		Store:     DB,
		Capture:   newCapture(Cfg, model, Log),
		Threshold: Cfg.Verify.Threshold,
		Metric:    metric,
	}

	fmt.Fprintln(cmd.OutOrStdout(), "📷 Look at camera...")
	m, err := v.Run(cmd.Context())
	if err != nil {
		if errors.Is(err, facerec.ErrNoMatch) && m.User.Name != "" {
			Log.WithField("nearest", m.User.Name).WithField("distance", m.Distance).Info("closest user above threshold")
		}
		return reportCaptureError(cmd, err, child)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Welcome %s (distance %.3f)\n", m.User.Name, m.Distance)
	return nil
}
