package choreography

import "github.com/teslashibe/go-dancegen/pkg/skeleton"

// DefaultSmoothingWindow is the centered moving-average width.
const DefaultSmoothingWindow = 5

// Finalize applies the post-processing chain in its fixed order: smooth the
// raw motion first, then fit it to exactly n frames. Padding therefore
// repeats an already-smoothed frame and the pad boundary is never averaged.
//
// Frames beyond n+window/2 cannot influence the output, so they are dropped
// before smoothing. The result equals FitLength(Smooth(raw, window), n, fill).
func Finalize(raw skeleton.Sequence, window, n int, fill skeleton.Pose) skeleton.Sequence {
	if n <= 0 {
		return skeleton.Sequence{}
	}
	if limit := max(n+window/2, window); window >= 2 && len(raw) > limit {
		raw = raw[:limit]
	}
	return FitLength(Smooth(raw, window), n, fill)
}

// Smooth replaces every coordinate with the mean over a centered window of
// window/2 frames on each side, clipped at both ends. The effective width is
// 2*(window/2)+1, so an even window behaves like the next odd one. Sequences
// shorter than window, and windows below 2, come back as an unmodified copy.
// The input is not modified.
func Smooth(seq skeleton.Sequence, window int) skeleton.Sequence {
	if window < 2 || len(seq) < window {
		return seq.Clone()
	}

	half := window / 2
	out := make(skeleton.Sequence, len(seq))

	for i := range seq {
		start := max(0, i-half)
		end := min(len(seq), i+half+1)
		count := float64(end - start)

		ref := seq[start]
		pose := make(skeleton.Pose, len(ref))
		for j := range ref {
			for c := 0; c < 3; c++ {
				// deviations from the window's first sample keep constant runs bit-exact
				var dev float64
				for k := start + 1; k < end; k++ {
					dev += seq[k][j][c] - ref[j][c]
				}
				pose[j][c] = ref[j][c] + dev/count
			}
		}
		out[i] = pose
	}
	return out
}

// FitLength truncates seq from the end or pads it by repeating its last frame
// until it holds exactly n frames. An empty seq is padded with fill. Every
// returned frame is a fresh copy.
func FitLength(seq skeleton.Sequence, n int, fill skeleton.Pose) skeleton.Sequence {
	if n <= 0 {
		return skeleton.Sequence{}
	}
	if len(seq) >= n {
		return seq[:n].Clone()
	}

	out := make(skeleton.Sequence, 0, n)
	out = append(out, seq.Clone()...)

	last := fill
	if len(seq) > 0 {
		last = seq[len(seq)-1]
	}
	for len(out) < n {
		out = append(out, last.Clone())
	}
	return out
}
