package codec

import (
	"bytes"
	"testing"
)

// pixels builds a packed RGB frame from per-pixel triples.
func pixels(p ...[3]byte) []byte {
	out := make([]byte, 0, len(p)*3)
	for _, px := range p {
		out = append(out, px[0], px[1], px[2])
	}
	return out
}

func TestCompareFrames_Basic(t *testing.T) {
	prev := pixels([3]byte{0, 0, 0}, [3]byte{0, 0, 0}, [3]byte{0, 0, 0}, [3]byte{0, 0, 0})
	curr := pixels([3]byte{0, 0, 0}, [3]byte{255, 0, 0}, [3]byte{255, 0, 0}, [3]byte{0, 255, 0})

	changes := CompareFrames(prev, curr, 4, 1)

	want := []PixelChange{
		{Offset: 1, Count: 2, R: 255, G: 0, B: 0},
		{Offset: 3, Count: 1, R: 0, G: 255, B: 0},
	}
	if len(changes) != len(want) {
		t.Fatalf("got %d changes, want %d", len(changes), len(want))
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d = %+v, want %+v", i, changes[i], want[i])
		}
	}

	restored := ApplyChanges(prev, changes, 4, 1)
	if !bytes.Equal(restored, curr) {
		t.Errorf("ApplyChanges did not restore the frame: got %v, want %v", restored, curr)
	}
}

func TestCompareFrames_NoChange(t *testing.T) {
	frame := pixels([3]byte{10, 20, 30}, [3]byte{40, 50, 60})
	if changes := CompareFrames(frame, frame, 2, 1); len(changes) != 0 {
		t.Errorf("identical frames produced %d changes", len(changes))
	}
}

func TestCompareFrames_ThresholdIsStrict(t *testing.T) {
	tests := []struct {
		name    string
		prev    byte
		curr    byte
		changed bool
	}{
		{name: "difference equals threshold", prev: 10, curr: 20, changed: false},
		{name: "difference above threshold", prev: 10, curr: 21, changed: true},
		{name: "difference below threshold", prev: 10, curr: 15, changed: false},
		{name: "negative direction above threshold", prev: 30, curr: 19, changed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := pixels([3]byte{tt.prev, tt.prev, tt.prev})
			curr := pixels([3]byte{tt.curr, tt.curr, tt.curr})
			changes := CompareFrames(prev, curr, 1, 1)
			if (len(changes) > 0) != tt.changed {
				t.Errorf("changed = %v, want %v", len(changes) > 0, tt.changed)
			}
		})
	}
}

func TestCompareFrames_RunSaturatesAt255(t *testing.T) {
	const totalPixels = 300
	prev := BlackFrame(totalPixels, 1)
	curr := make([]byte, totalPixels*3)
	for i := 0; i < totalPixels; i++ {
		curr[i*3] = 200
	}

	changes := CompareFrames(prev, curr, totalPixels, 1)
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	if changes[0].Count != 255 || changes[0].Offset != 0 {
		t.Errorf("first run = %+v, want offset 0 count 255", changes[0])
	}
	if changes[1].Count != 45 || changes[1].Offset != 255 {
		t.Errorf("second run = %+v, want offset 255 count 45", changes[1])
	}
}

func TestCompareFrames_RunBreaksOnDifferentColor(t *testing.T) {
	prev := BlackFrame(3, 1)
	curr := pixels([3]byte{200, 0, 0}, [3]byte{0, 200, 0}, [3]byte{0, 200, 0})

	changes := CompareFrames(prev, curr, 3, 1)
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	if changes[0].Count != 1 || changes[1].Offset != 1 || changes[1].Count != 2 {
		t.Errorf("unexpected runs: %+v", changes)
	}
}

func TestCompareFrames_ShapeMismatch(t *testing.T) {
	if changes := CompareFrames(make([]byte, 12), make([]byte, 9), 2, 2); changes != nil {
		t.Errorf("mismatched frames produced changes: %+v", changes)
	}
	if changes := CompareFrames(nil, nil, 0, 0); changes != nil {
		t.Errorf("empty frames produced changes: %+v", changes)
	}
}

func TestCompareFramesThreshold_ZeroIsExact(t *testing.T) {
	prev := pixels([3]byte{10, 10, 10}, [3]byte{10, 10, 10})
	curr := pixels([3]byte{11, 10, 10}, [3]byte{10, 10, 10})

	changes := CompareFramesThreshold(prev, curr, 2, 1, 0)
	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(changes))
	}

	restored := ApplyChanges(prev, changes, 2, 1)
	if !bytes.Equal(restored, curr) {
		t.Errorf("zero-threshold diff is not exact")
	}
}

func TestApplyChanges_Clamping(t *testing.T) {
	base := BlackFrame(4, 1)

	// Offset past the frame is skipped entirely, overlong runs stop at the
	// last pixel.
	changes := []PixelChange{
		{Offset: 10, Count: 3, R: 1, G: 2, B: 3},
		{Offset: 2, Count: 200, R: 9, G: 9, B: 9},
	}
	result := ApplyChanges(base, changes, 4, 1)

	want := pixels([3]byte{0, 0, 0}, [3]byte{0, 0, 0}, [3]byte{9, 9, 9}, [3]byte{9, 9, 9})
	if !bytes.Equal(result, want) {
		t.Errorf("got %v, want %v", result, want)
	}
	if len(result) != FrameSize(4, 1) {
		t.Errorf("result length %d, want %d", len(result), FrameSize(4, 1))
	}
}

func TestApplyChanges_DoesNotMutateBase(t *testing.T) {
	base := BlackFrame(2, 1)
	ApplyChanges(base, []PixelChange{{Offset: 0, Count: 2, R: 5, G: 5, B: 5}}, 2, 1)
	if !bytes.Equal(base, BlackFrame(2, 1)) {
		t.Errorf("base frame was mutated")
	}
}

func TestDiffPercentage(t *testing.T) {
	prev := BlackFrame(4, 1)
	curr := pixels([3]byte{1, 0, 0}, [3]byte{0, 0, 0}, [3]byte{0, 0, 1}, [3]byte{0, 0, 0})

	if got := DiffPercentage(prev, curr, 4, 1); got != 50.0 {
		t.Errorf("DiffPercentage = %v, want 50", got)
	}
	if got := DiffPercentage(prev, prev, 4, 1); got != 0.0 {
		t.Errorf("DiffPercentage of identical frames = %v, want 0", got)
	}
	if got := DiffPercentage(prev, make([]byte, 3), 4, 1); got != 100.0 {
		t.Errorf("DiffPercentage of mismatched frames = %v, want 100", got)
	}
}
