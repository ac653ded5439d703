package dance

import "time"

// Report is the JSON document stored next to a rendered dance.
type Report struct {
	Timestamp     time.Time      `json:"timestamp"`
	MusicFile     string         `json:"music_file,omitempty"`
	Style         string         `json:"dance_style"`
	StyleName     string         `json:"style_name"`
	FellBack      bool           `json:"fell_back,omitempty"`
	Keywords      []string       `json:"keywords"`
	Tempo         float64        `json:"tempo"`
	Duration      float64        `json:"duration"`
	BeatCount     int            `json:"beat_count"`
	FrameRate     float64        `json:"frame_rate"`
	TotalFrames   int            `json:"total_frames"`
	FramesPerBeat int            `json:"frames_per_beat"`
	Steps         int            `json:"steps"`
	MoveCounts    map[string]int `json:"move_counts"`
	KeyMovements  []string       `json:"key_movements"`
	Mood          []string       `json:"mood"`
	Joints        []JointStats   `json:"joint_stats"`
	Video         string         `json:"video,omitempty"`
}

// Report builds the generation report for r.
func (g *Generator) Report(r *Result, music MusicFeatures, keywords []string) Report {
	if keywords == nil {
		keywords = []string{}
	}
	return Report{
		Timestamp:     time.Now(),
		Style:         r.Style.ID,
		StyleName:     r.Style.Name,
		FellBack:      r.FellBack,
		Keywords:      keywords,
		Tempo:         music.Tempo,
		Duration:      music.Duration,
		BeatCount:     len(music.Beats),
		FrameRate:     r.FrameRate,
		TotalFrames:   r.TotalFrames,
		FramesPerBeat: r.FramesPerBeat,
		Steps:         len(r.Plan.Steps),
		MoveCounts:    r.Plan.MoveCounts(),
		KeyMovements:  r.Style.KeyMovements,
		Mood:          r.Style.Mood,
		Joints:        Stats(g.def, r.Sequence),
	}
}
