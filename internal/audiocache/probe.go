package audiocache

import (
	"encoding/json"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// probeDurationSeconds asks ffprobe for the clip duration. Purely
// informational: any failure (ffprobe missing, unparsable output)
// reports zero instead of an error.
func probeDurationSeconds(file string) float64 {
	out, err := ffmpeg.Probe(file)
	if err != nil {
		return 0
	}

	var info struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		return 0
	}

	seconds, err := strconv.ParseFloat(info.Format.Duration, 64)
	if err != nil {
		return 0
	}
	return seconds
}
