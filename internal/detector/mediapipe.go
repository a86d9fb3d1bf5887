package detector

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	serviceScript = "mediapipe_service.py"

	// EnvScript and EnvPython override where the service script and its
	// interpreter are looked up.
	EnvScript = "PINCHBOARD_MEDIAPIPE_SCRIPT"
	EnvPython = "PINCHBOARD_PYTHON"
)

// ErrServiceNotFound is returned when the MediaPipe service script cannot be located.
var ErrServiceNotFound = errors.New("detector: " + serviceScript + " not found")

// MediaPipeDetector runs hand landmark inference in a Python MediaPipe
// subprocess. Each frame goes to its stdin as a 4-byte big-endian length and
// a JPEG; each answer is one JSON line {"hands": [...]} on stdout.
//
// The subprocess starts on the first Detect and stops after
// Config.IdleShutdownMs without frames.
type MediaPipeDetector struct {
	config Config
	script string
	python string
	log    logrus.FieldLogger

	mu     sync.Mutex
	svc    *service
	idle   *time.Timer
	frames uint64
}

// service is one running interpreter.
type service struct {
	cmd    *exec.Cmd
	in     io.WriteCloser
	out    *bufio.Reader
	stderr io.WriteCloser
}

// NewMediaPipeDetector locates the service script and interpreter. Nothing
// is started until the first Detect.
func NewMediaPipeDetector(config Config, log logrus.FieldLogger) (*MediaPipeDetector, error) {
	script := locate(EnvScript, scriptCandidates())
	if script == "" {
		return nil, ErrServiceNotFound
	}
	python := locate(EnvPython, pythonCandidates())
	if python == "" {
		python = "python3"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		python: python,
		log:    log.WithField("component", "mediapipe"),
	}, nil
}

// Detect sends frame to the service and returns the hands it reports, in
// normalized coordinates.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	payload, err := encodeFrame(frame)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.svc == nil {
		if err := d.start(); err != nil {
			return nil, err
		}
	}

	if _, err := d.svc.in.Write(payload); err != nil {
		d.stop()
		return nil, fmt.Errorf("send frame: %w", err)
	}
	line, err := d.svc.out.ReadBytes('\n')
	if err != nil {
		d.stop()
		return nil, fmt.Errorf("read response: %w", err)
	}

	d.frames++
	d.armIdle()
	return parseResponse(line)
}

// Close stops the service if it is running.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

// encodeFrame JPEG-encodes frame behind its length prefix.
func encodeFrame(frame *gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, 0, 4+len(data))
	out = binary.BigEndian.AppendUint32(out, uint32(len(data)))
	return append(out, data...), nil
}

func (d *MediaPipeDetector) start() error {
	cmd := exec.Command(d.python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	)

	in, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr := d.stderrWriter()
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		stderr.Close()
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.svc = &service{cmd: cmd, in: in, out: bufio.NewReader(out), stderr: stderr}
	d.frames = 0
	d.log.WithFields(logrus.Fields{
		"python": d.python,
		"script": d.script,
		"pid":    cmd.Process.Pid,
	}).Info("mediapipe service started")
	return nil
}

// stderrWriter forwards the service's stderr to the debug log when the
// logger supports it.
func (d *MediaPipeDetector) stderrWriter() io.WriteCloser {
	if w, ok := d.log.(interface {
		WriterLevel(logrus.Level) *io.PipeWriter
	}); ok {
		return w.WriterLevel(logrus.DebugLevel)
	}
	return nopWriteCloser{os.Stderr}
}

func (d *MediaPipeDetector) stop() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.svc == nil {
		return nil
	}

	svc := d.svc
	d.svc = nil

	svc.in.Close()
	err := svc.cmd.Wait()
	svc.stderr.Close()

	d.log.WithField("frames", d.frames).Info("mediapipe service stopped")
	return err
}

func (d *MediaPipeDetector) armIdle() {
	if d.config.IdleShutdownMs <= 0 {
		return
	}
	if d.idle != nil {
		d.idle.Stop()
	}
	d.idle = time.AfterFunc(time.Duration(d.config.IdleShutdownMs)*time.Millisecond, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.log.Debug("mediapipe service idle")
		d.stop()
	})
}

func scriptCandidates() []string {
	out := []string{
		filepath.Join("scripts", serviceScript),
		filepath.Join("..", "scripts", serviceScript),
	}
	if exe, err := os.Executable(); err == nil {
		out = append(out, filepath.Join(filepath.Dir(exe), "scripts", serviceScript))
	}
	if home, err := os.UserHomeDir(); err == nil {
		out = append(out, filepath.Join(home, ".pinchboard", "scripts", serviceScript))
	}
	return out
}

func pythonCandidates() []string {
	venv := filepath.Join("venv", "bin", "python")
	out := []string{venv, filepath.Join("..", venv)}
	if exe, err := os.Executable(); err == nil {
		out = append(out, filepath.Join(filepath.Dir(exe), venv))
	}
	if home, err := os.UserHomeDir(); err == nil {
		out = append(out, filepath.Join(home, ".pinchboard", venv))
	}
	return out
}

// locate returns the path named by the environment variable env, or else the
// first existing candidate, made absolute. It returns "" when nothing exists.
func locate(env string, candidates []string) string {
	if p := os.Getenv(env); p != "" {
		candidates = []string{p}
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type serviceHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

type serviceResponse struct {
	Hands []serviceHand `json:"hands"`
	Error string        `json:"error,omitempty"`
}

// parseResponse decodes one response line. Hands with fewer than
// NumLandmarks points are dropped.
func parseResponse(line []byte) ([]HandLandmarks, error) {
	var resp serviceResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("mediapipe service: %s", resp.Error)
	}

	hands := make([]HandLandmarks, 0, len(resp.Hands))
	for _, h := range resp.Hands {
		if len(h.Points) < NumLandmarks {
			continue
		}
		lm := HandLandmarks{Handedness: h.Handedness, Score: h.Score}
		copy(lm.Points[:], h.Points)
		hands = append(hands, lm)
	}
	return hands, nil
}
