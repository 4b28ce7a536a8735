package cmd

import (
	"github.com/andresmejia3/faceenroll/internal/camera"
	"github.com/andresmejia3/faceenroll/internal/config"
	"github.com/andresmejia3/faceenroll/internal/embedding"
	"github.com/andresmejia3/faceenroll/internal/facerec"
	"github.com/andresmejia3/faceenroll/internal/utils"
	"github.com/andresmejia3/faceenroll/internal/worker"
	"github.com/sirupsen/logrus"
)

// faceModel is a loaded face model that must be closed after use.
type faceModel interface {
	facerec.FaceEmbedder
	Close() error
}

var (
	// loadFaceModel builds the configured model. Tests swap it out.
	loadFaceModel = newFaceModel
	// openCamera builds the capture device opener. Tests swap it out.
	openCamera = func(cfg *config.Config, log *logrus.Entry) camera.Opener {
		return camera.NewFFmpegOpener(cfg.Camera.FFmpeg, cfg.Camera.Device, log)
	}
)

// newFaceModel loads the configured backend once for the whole process.
// The returned SafeCommand is non-nil for the python backend so its stderr
// can be shown in diagnostics.
func newFaceModel(cfg *config.Config, log *logrus.Entry) (faceModel, *utils.SafeCommand, error) {
	log = log.WithField("engine", cfg.Engine.Kind)

	switch cfg.Engine.Kind {
	case "python":
		w, err := worker.NewPythonWorker(0, worker.Config{
			Python:    cfg.Engine.Python,
			Script:    cfg.Engine.WorkerScript,
			ModelsDir: cfg.Engine.ModelsDir,
		})
		if err != nil {
			return nil, nil, err
		}
		log.WithField("script", cfg.Engine.WorkerScript).Debug("python worker started")
		return w, w.Cmd, nil
	default:
		d, err := newDlibModel(cfg)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("models", cfg.Engine.ModelsDir).Debug("dlib models loaded")
		return d, nil, nil
	}
}

// newCapture wires the configured camera and a loaded model into a Capture.
func newCapture(cfg *config.Config, model facerec.FaceEmbedder, log *logrus.Entry) *facerec.Capture {
	return &facerec.Capture{
		Camera:   openCamera(cfg, log),
		Embedder: model,
		Dim:      embedding.Dim,
		Out:      stderr,
		Log:      log,
	}
}
