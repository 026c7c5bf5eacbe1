package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// Info is the subset of ffprobe output the splitter cares about.
type Info struct {
	Path       string
	Duration   time.Duration
	Width      int
	Height     int
	VideoCodec string
	AudioCodec string
	HasAudio   bool
	FormatName string
}

type Prober struct {
	FFprobeBin string
}

func New(ffprobeBin string) *Prober {
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	return &Prober{FFprobeBin: ffprobeBin}
}

func (p *Prober) Probe(ctx context.Context, path string) (*Info, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	out, err := exec.CommandContext(ctx, p.FFprobeBin, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	info, err := Parse(out)
	if err != nil {
		return nil, err
	}
	info.Path = path
	return info, nil
}

// Parse decodes `ffprobe -print_format json -show_format -show_streams` output.
func Parse(data []byte) (*Info, error) {
	var res result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &Info{FormatName: res.Format.FormatName}
	if d, err := strconv.ParseFloat(res.Format.Duration, 64); err == nil && d > 0 {
		info.Duration = time.Duration(d * float64(time.Second))
	}

	for _, s := range res.Streams {
		switch s.CodecType {
		case "video":
			if info.VideoCodec != "" {
				continue
			}
			info.Width = s.Width
			info.Height = s.Height
			info.VideoCodec = s.CodecName
			if info.Duration == 0 {
				if d, err := strconv.ParseFloat(s.Duration, 64); err == nil && d > 0 {
					info.Duration = time.Duration(d * float64(time.Second))
				}
			}
		case "audio":
			if !info.HasAudio {
				info.HasAudio = true
				info.AudioCodec = s.CodecName
			}
		}
	}
	return info, nil
}

type result struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}
