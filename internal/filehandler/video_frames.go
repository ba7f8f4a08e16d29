package filehandler

// video_frames.go reads single frames from a video with ffmpeg. Frames are
// streamed as PNG over stdout and decoded in-process, so nothing besides the
// uploaded video touches the disk.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// FFmpegDecoder implements VideoDecoder with the ffprobe and ffmpeg binaries.
type FFmpegDecoder struct {
	FFmpegPath  string
	FFprobePath string
}

// NewFFmpegDecoder locates ffmpeg and ffprobe in PATH.
func NewFFmpegDecoder() (*FFmpegDecoder, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: install FFmpeg with: brew install ffmpeg (macOS) or apt install ffmpeg (Linux): %w", err)
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	log.Debug().
		Str("ffmpeg", ffmpegPath).
		Str("ffprobe", ffprobePath).
		Msg("FFmpeg tools found")
	return &FFmpegDecoder{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}, nil
}

// Open probes the video and returns a stream positioned for frame reads.
func (d *FFmpegDecoder) Open(ctx context.Context, path string) (VideoStream, error) {
	if d == nil || d.FFmpegPath == "" || d.FFprobePath == "" {
		return nil, errors.New("video decoding unavailable: ffmpeg is not installed")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat video: %w", err)
	}

	info, err := probeVideo(ctx, d.FFprobePath, path)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("frame_count", info.FrameCount).
		Float64("frame_rate", info.FrameRate).
		Dur("duration", info.Duration).
		Int("width", info.Width).
		Int("height", info.Height).
		Str("codec", info.Codec).
		Msg("Video probed via ffprobe")

	return &ffmpegStream{ffmpegPath: d.FFmpegPath, path: path, info: info}, nil
}

type ffmpegStream struct {
	ffmpegPath string
	path       string
	info       *VideoInfo

	mu     sync.Mutex
	closed bool
}

func (s *ffmpegStream) FrameCount(_ context.Context) (int, error) {
	return s.info.FrameCount, nil
}

// FrameSize reports the probed stream dimensions.
func (s *ffmpegStream) FrameSize() (int, int) {
	return s.info.Width, s.info.Height
}

// ReadFrame seeks to index / fps seconds and decodes one frame.
func (s *ffmpegStream) ReadFrame(ctx context.Context, index int) (image.Image, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, errors.New("video stream is closed")
	}
	if index < 0 || index >= s.info.FrameCount {
		return nil, fmt.Errorf("frame index %d out of range [0, %d)", index, s.info.FrameCount)
	}
	if s.info.FrameRate <= 0 {
		return nil, errors.New("unknown frame rate")
	}

	offset := float64(index) / s.info.FrameRate
	args := []string{
		"-v", "error",
		"-ss", strconv.FormatFloat(offset, 'f', 3, 64),
		"-i", s.path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame read failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg returned no frame at %.3fs", offset)
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	return img, nil
}

func (s *ffmpegStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
