//go:build dlib

package cmd

import (
	"github.com/andresmejia3/faceenroll/internal/config"
	"github.com/andresmejia3/faceenroll/internal/recognizer"
)

func newDlibModel(cfg *config.Config) (faceModel, error) {
	d, err := recognizer.New(cfg.Engine.ModelsDir, cfg.Engine.CNN)
	if err != nil {
		return nil, err
	}
	return d, nil
}
