package filehandler

// video_probe.go reads stream properties with ffprobe. The frame selector
// only needs the frame count and rate, so most of the ffprobe document is
// ignored.

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ffprobeOutput represents the JSON structure from ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

type ffprobeStream struct {
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	Duration     string `json:"duration"`
	NbFrames     string `json:"nb_frames"`
}

// VideoInfo is what the frame selector needs to know about a video stream.
type VideoInfo struct {
	FrameCount int
	FrameRate  float64
	Duration   time.Duration
	Width      int
	Height     int
	Codec      string
}

// probeVideo runs ffprobe on the first video stream of path.
func probeVideo(ctx context.Context, ffprobePath, path string) (*VideoInfo, error) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-select_streams", "v:0",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbeOutput(output)
}

// parseProbeOutput extracts VideoInfo from ffprobe JSON. The frame count
// comes from nb_frames when the container records it, otherwise from
// duration × frame rate.
func parseProbeOutput(output []byte) (*VideoInfo, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var stream *ffprobeStream
	for i := range probe.Streams {
		if probe.Streams[i].CodecType == "video" {
			stream = &probe.Streams[i]
			break
		}
	}
	if stream == nil {
		return nil, fmt.Errorf("no video stream found")
	}

	info := &VideoInfo{
		Width:  stream.Width,
		Height: stream.Height,
		Codec:  stream.CodecName,
	}

	info.FrameRate = parseFrameRate(stream.AvgFrameRate)
	if info.FrameRate <= 0 {
		info.FrameRate = parseFrameRate(stream.RFrameRate)
	}

	seconds := parseSeconds(stream.Duration)
	if seconds <= 0 {
		seconds = parseSeconds(probe.Format.Duration)
	}
	info.Duration = time.Duration(seconds * float64(time.Second))

	if n, err := strconv.Atoi(stream.NbFrames); err == nil && n > 0 {
		info.FrameCount = n
	} else if info.FrameRate > 0 && seconds > 0 {
		info.FrameCount = int(math.Floor(seconds * info.FrameRate))
	}

	return info, nil
}

// parseFrameRate parses frame rate from ffprobe format (e.g., "60/1" -> 60.0)
func parseFrameRate(value string) float64 {
	parts := strings.Split(value, "/")
	if len(parts) == 2 {
		num, _ := strconv.ParseFloat(parts[0], 64)
		den, _ := strconv.ParseFloat(parts[1], 64)
		if den != 0 {
			return num / den
		}
		return 0
	}
	rate, _ := strconv.ParseFloat(value, 64)
	return rate
}

func parseSeconds(value string) float64 {
	if value == "" || value == "N/A" {
		return 0
	}
	s, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return s
}
