package viz

import (
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Keyboard codes that stop the run from the display window.
const (
	keyQuit = 'q'
	keyESC  = 27
)

// Window wraps the on-screen preview and its quit-key handling.
type Window struct {
	win *gocv.Window
	log *logrus.Logger
}

// NewWindow opens a named display window.
func NewWindow(title string, log *logrus.Logger) *Window {
	return &Window{win: gocv.NewWindow(title), log: log}
}

// Show displays the frame and polls the keyboard for about a
// millisecond. Returns true when the user pressed a quit key.
func (w *Window) Show(frame gocv.Mat) bool {
	w.win.IMShow(frame)
	key := w.win.WaitKey(1) & 0xFF
	if key == keyQuit || key == keyESC {
		w.log.Info("stopped from display window")
		return true
	}
	return false
}

// Close releases the window.
func (w *Window) Close() error {
	return w.win.Close()
}
