package config

import (
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/andresmejia3/faceenroll/internal/camera"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load looks at so the host environment
// cannot leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"FACEENROLL_DATABASE_URL", "FACEENROLL_CAMERA_DEVICE", "FACEENROLL_ENGINE_KIND",
		"FACEENROLL_ENGINE_MODELS_DIR", "FACEENROLL_VERIFY_THRESHOLD", "FACEENROLL_VERIFY_METRIC",
		"FACEENROLL_LOG_LEVEL",
		"POSTGRES_HOST", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_PORT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDatabase, cfg.Database.URL)
	assert.Equal(t, camera.DefaultDevice(runtime.GOOS), cfg.Camera.Device)
	assert.Equal(t, "ffmpeg", cfg.Camera.FFmpeg)
	assert.Equal(t, "dlib", cfg.Engine.Kind)
	assert.Equal(t, "models", cfg.Engine.ModelsDir)
	assert.Equal(t, 0.5, cfg.Verify.Threshold)
	assert.Equal(t, "euclidean", cfg.Verify.Metric)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FACEENROLL_DATABASE_URL", "/tmp/other.db")
	t.Setenv("FACEENROLL_ENGINE_KIND", "python")
	t.Setenv("FACEENROLL_VERIFY_THRESHOLD", "0.42")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.Database.URL)
	assert.Equal(t, "python", cfg.Engine.Kind)
	assert.InDelta(t, 0.42, cfg.Verify.Threshold, 1e-9)
}

func TestLoadPostgresFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "u")
	t.Setenv("POSTGRES_PASSWORD", "p")
	t.Setenv("POSTGRES_DB", "faces")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/faces", cfg.Database.URL)
}

func TestLoadPostgresFallbackEscapesCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "p@ss/w:rd?")
	t.Setenv("POSTGRES_DB", "faces")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	u, err := url.Parse(cfg.Database.URL)
	require.NoError(t, err)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/faces", u.Path)
	assert.Equal(t, "app", u.User.Username())
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss/w:rd?", pass)
}

func TestLoadFileAndFlags(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "faceenroll.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  url: from-file.db
camera:
  device: /dev/video3
engine:
  models_dir: /opt/models
`), 0o644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "")
	flags.String("device", "", "")
	require.NoError(t, flags.Parse([]string{"--db", "from-flag.db"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "from-flag.db", cfg.Database.URL, "flags win over the file")
	assert.Equal(t, "/dev/video3", cfg.Camera.Device, "unset flags do not mask the file")
	assert.Equal(t, "/opt/models", cfg.Engine.ModelsDir)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Engine: EngineConfig{Kind: "opencv"}, Verify: VerifyConfig{Threshold: 0.5}}
	assert.ErrorContains(t, cfg.Validate(), "unknown engine")

	cfg.Engine.Kind = "python"
	cfg.Verify.Threshold = 0
	assert.ErrorContains(t, cfg.Validate(), "threshold")

	cfg.Verify.Threshold = 0.6
	assert.NoError(t, cfg.Validate())

	cfg.Verify.Metric = "manhattan"
	assert.ErrorContains(t, cfg.Validate(), "unknown metric")

	cfg.Verify.Metric = "cosine"
	assert.NoError(t, cfg.Validate())
}
