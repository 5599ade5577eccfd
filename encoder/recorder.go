package encoder

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/richinsley/hotshader/graphics"
)

// ErrViewportChanged is returned when the viewport no longer matches the
// size the transcoder was started with.
var ErrViewportChanged = errors.New("viewport changed during recording")

// Config holds the compiled-in recording parameters.
type Config struct {
	FFmpegPath string // empty uses ffmpeg from PATH
	OutputFile string
	FPS        int
	FrameLimit int
	Codec      string
	Preset     string
	CRF        int
}

func DefaultConfig() Config {
	return Config{
		OutputFile: "1.mp4",
		FPS:        60,
		FrameLimit: 60 * 5,
		Codec:      "libx264",
		Preset:     "fast",
		CRF:        21,
	}
}

// Sink receives raw frames. Close ends the stream and Wait blocks until the
// consumer exits.
type Sink interface {
	io.WriteCloser
	Wait() error
}

// Launcher starts a sink for frames of the given size.
type Launcher func(width, height int) (Sink, error)

// Recorder streams the framebuffer to a transcoder, one frame per Capture.
// The transcoder is started lazily on the first Capture.
type Recorder struct {
	reader   graphics.PixelReader
	config   Config
	launcher Launcher

	sink   Sink
	buffer []byte
	width  int
	height int
	frames int
	done   bool
	err    error
}

func NewRecorder(reader graphics.PixelReader, config Config) *Recorder {
	return &Recorder{
		reader:   reader,
		config:   config,
		launcher: FFmpegLauncher(config),
	}
}

// SetLauncher replaces the transcoder launcher. It has no effect once the
// recording started.
func (r *Recorder) SetLauncher(l Launcher) {
	r.launcher = l
}

// Frames returns the number of frames written so far.
func (r *Recorder) Frames() int {
	return r.frames
}

// Done reports whether the recording finished.
func (r *Recorder) Done() bool {
	return r.done
}

// Capture reads the current viewport and writes it to the transcoder. It
// returns true while the recording wants more frames. After FrameLimit
// frames the stream is closed and false is returned, as it is for every
// later call.
func (r *Recorder) Capture() (bool, error) {
	if r.done {
		return false, nil
	}

	x, y, width, height := r.reader.Viewport()
	if r.sink == nil {
		if err := r.start(width, height); err != nil {
			r.done = true
			return false, err
		}
	}
	if width != r.width || height != r.height {
		err := fmt.Errorf("%w: started at %dx%d, now %dx%d", ErrViewportChanged, r.width, r.height, width, height)
		r.finish()
		return false, err
	}

	r.reader.ReadPixelsRGB(x, y, width, height, r.buffer)
	if _, err := r.sink.Write(r.buffer); err != nil {
		werr := fmt.Errorf("failed to write frame %d: %w", r.frames, err)
		if ferr := r.finish(); ferr != nil {
			log.Printf("transcoder exited with error: %v", ferr)
		}
		return false, werr
	}
	r.frames++

	if r.frames >= r.config.FrameLimit {
		return false, r.finish()
	}
	return true, nil
}

// Close ends a recording early. It is safe to call at any time.
func (r *Recorder) Close() error {
	if r.done {
		return r.err
	}
	if r.sink == nil {
		r.done = true
		return nil
	}
	return r.finish()
}

func (r *Recorder) start(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", width, height)
	}
	if r.config.FrameLimit <= 0 {
		return fmt.Errorf("invalid frame limit %d", r.config.FrameLimit)
	}
	sink, err := r.launcher(width, height)
	if err != nil {
		return fmt.Errorf("failed to start transcoder: %w", err)
	}
	r.sink = sink
	r.width = width
	r.height = height
	r.buffer = make([]byte, width*height*3)
	log.Printf("Recording %dx%d to %s", width, height, r.config.OutputFile)
	return nil
}

// finish closes the stream exactly once and waits for the transcoder.
func (r *Recorder) finish() error {
	r.done = true
	if err := r.sink.Close(); err != nil {
		r.err = err
	}
	if err := r.sink.Wait(); err != nil && r.err == nil {
		r.err = err
	}
	log.Printf("Recording finished after %d frames", r.frames)
	return r.err
}
