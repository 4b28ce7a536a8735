//go:build !dlib

package cmd

import (
	"errors"

	"github.com/andresmejia3/faceenroll/internal/config"
)

var errNoDlib = errors.New("built without dlib support: rebuild with -tags dlib or use --engine python")

func newDlibModel(cfg *config.Config) (faceModel, error) {
	return nil, errNoDlib
}
