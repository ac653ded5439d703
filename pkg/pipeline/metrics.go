package pipeline

import "time"

// Timings records how long each stage of one job took.
type Timings struct {
	Analyze  time.Duration `json:"analyze"`
	Generate time.Duration `json:"generate"`
	Render   time.Duration `json:"render"`
	Mux      time.Duration `json:"mux"`
	Total    time.Duration `json:"total"`
}

// stopwatch measures consecutive stages.
type stopwatch struct {
	start time.Time
	last  time.Time
}

func newStopwatch() *stopwatch {
	now := time.Now()
	return &stopwatch{start: now, last: now}
}

// lap returns the time since the previous lap.
func (s *stopwatch) lap() time.Duration {
	now := time.Now()
	d := now.Sub(s.last)
	s.last = now
	return d
}

func (s *stopwatch) total() time.Duration {
	return time.Since(s.start)
}

// attrs lists the timings in milliseconds as slog key-value pairs.
func (t Timings) attrs() []any {
	return []any{
		"analyze_ms", t.Analyze.Milliseconds(),
		"generate_ms", t.Generate.Milliseconds(),
		"render_ms", t.Render.Milliseconds(),
		"mux_ms", t.Mux.Milliseconds(),
		"total_ms", t.Total.Milliseconds(),
	}
}
