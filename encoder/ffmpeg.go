package encoder

import (
	"fmt"
	"io"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ffmpegSink feeds an ffmpeg process through an in-memory pipe.
type ffmpegSink struct {
	*io.PipeWriter
	errc chan error
}

func (s *ffmpegSink) Wait() error {
	return <-s.errc
}

// ffmpegArgs builds the input and output arguments for raw RGB24 frames of
// the given size. The framebuffer is read bottom-up, hence vflip.
func ffmpegArgs(config Config, width, height int) (inputArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"r":       config.FPS,
		"f":       "rawvideo",
		"pix_fmt": "rgb24",
		"s":       fmt.Sprintf("%dx%d", width, height),
	}
	outputArgs = ffmpeg.KwArgs{
		"c:v":     config.Codec,
		"preset":  config.Preset,
		"pix_fmt": "yuv420p",
		"crf":     config.CRF,
		"vf":      "vflip",
	}
	return
}

// FFmpegLauncher starts ffmpeg reading raw frames on stdin.
func FFmpegLauncher(config Config) Launcher {
	return func(width, height int) (Sink, error) {
		pipeReader, pipeWriter := io.Pipe()
		inputArgs, outputArgs := ffmpegArgs(config, width, height)

		ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
			Output(config.OutputFile, outputArgs).
			OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()

		if config.FFmpegPath != "" {
			ffmpegCmd = ffmpegCmd.SetFfmpegPath(config.FFmpegPath)
		}

		errc := make(chan error, 1)
		go func() {
			err := ffmpegCmd.Run()
			// Unblock the writer if ffmpeg exits before reading everything.
			if err != nil {
				pipeReader.CloseWithError(fmt.Errorf("ffmpeg exited: %w", err))
			} else {
				pipeReader.Close()
			}
			errc <- err
		}()

		return &ffmpegSink{PipeWriter: pipeWriter, errc: errc}, nil
	}
}
