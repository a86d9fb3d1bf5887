package server

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultStreamFPS is used when the configured stream rate is not positive.
const DefaultStreamFPS = 15

// FrameSource supplies the latest composited board frame as JPEG.
type FrameSource interface {
	LatestJPEG() ([]byte, error)
}

// StreamHandler serves the board as MJPEG.
type StreamHandler struct {
	frames FrameSource
	fps    int
	log    logrus.FieldLogger
}

// NewStreamHandler creates a StreamHandler sending at most fps frames per
// second to each client.
func NewStreamHandler(frames FrameSource, fps int, log logrus.FieldLogger) *StreamHandler {
	if fps <= 0 {
		fps = DefaultStreamFPS
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StreamHandler{frames: frames, fps: fps, log: log}
}

// ServeHTTP streams MJPEG frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)
	limiter := rate.NewLimiter(rate.Limit(h.fps), 1)
	ctx := r.Context()

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		jpeg, err := h.frames.LatestJPEG()
		if err != nil || len(jpeg) == 0 {
			continue
		}

		if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
			h.log.WithError(err).Debug("stream client gone")
			return
		}
		if _, err := w.Write(jpeg); err != nil {
			return
		}
		fmt.Fprint(w, "\r\n")

		if flusher != nil {
			flusher.Flush()
		}
	}
}
