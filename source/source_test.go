package source

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"file", KindFile, false},
		{"camera", KindCamera, false},
		{"webcam", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := ParseKind(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "camera", KindCamera.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestFactoryRequiresPathForFiles(t *testing.T) {
	_, err := New(KindFile, "", 0, newTestLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a path")
}

func TestFactoryRejectsUnknownKind(t *testing.T) {
	_, err := New(Kind(42), "", 0, newTestLogger())

	assert.Error(t, err)
}

func TestFactoryBuildsByKind(t *testing.T) {
	file, err := New(KindFile, "footage.mp4", 0, newTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, file)
	assert.Equal(t, "footage.mp4", file.Describe())

	cam, err := New(KindCamera, "", 2, newTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &CameraSource{}, cam)
	assert.Equal(t, "camera:2", cam.Describe())
}

func TestFileSourceOpenFailsFastOnMissingFile(t *testing.T) {
	s := NewFileSource(filepath.Join(t.TempDir(), "nope.mp4"), newTestLogger())

	err := s.Open()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.mp4")
	assert.False(t, s.IsOpened())
}

func TestFileSourceContractBeforeOpen(t *testing.T) {
	s := NewFileSource("footage.mp4", newTestLogger())

	frame := gocv.NewMat()
	defer frame.Close()

	assert.False(t, s.Read(&frame), "reading an unopened source reports exhaustion")
	assert.False(t, s.IsOpened())
	assert.Zero(t, s.FPS())
	assert.Zero(t, s.TotalFrames())
	assert.NoError(t, s.Release(), "release is safe without open")
	assert.NoError(t, s.Release(), "and safe twice")
}

func TestCameraSourceReportsFallbackFPS(t *testing.T) {
	s := NewCameraSource(0, newTestLogger())

	assert.Equal(t, fallbackCameraFPS, s.FPS(), "no driver rate yet, fallback applies")
	assert.Equal(t, -1, s.TotalFrames(), "live streams are unbounded")
}
