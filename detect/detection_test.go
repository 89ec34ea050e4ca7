package detect

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectionDerivedValues(t *testing.T) {
	d := NewDetection(10, 20, 50, 100, 0.9)

	assert.Equal(t, 5000, d.Area(), "area should be w*h")
	assert.Equal(t, image.Pt(35, 70), d.Center(), "center should be box midpoint")
	assert.Equal(t, image.Rect(10, 20, 60, 120), d.Rect(), "rect should span the box")
}

func TestDetectionScaleMapsBackToOriginal(t *testing.T) {
	// A frame shrunk to half width puts a detection at half its true
	// coordinates; dividing by the scale factor restores them.
	d := NewDetection(100, 50, 40, 90, 0.8)

	restored := d.Scale(0.5)

	assert.Equal(t, 200, restored.X)
	assert.Equal(t, 100, restored.Y)
	assert.Equal(t, 80, restored.W)
	assert.Equal(t, 180, restored.H)
	assert.Equal(t, 0.8, restored.Confidence, "confidence must not change on rescale")
}

func TestDetectionScaleRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		d      Detection
		factor float64
	}{
		{"half", NewDetection(10, 20, 50, 100, 0.9), 0.5},
		{"odd coordinates", NewDetection(11, 21, 51, 101, 0.7), 0.5},
		{"third", NewDetection(33, 66, 45, 99, 1.2), 3.0},
		{"irrational-ish", NewDetection(100, 200, 60, 140, 0.5), 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			back := tt.d.Scale(tt.factor).Scale(1 / tt.factor)

			assert.InDelta(t, tt.d.X, back.X, 1, "x should survive round trip")
			assert.InDelta(t, tt.d.Y, back.Y, 1, "y should survive round trip")
			assert.InDelta(t, tt.d.W, back.W, 1, "w should survive round trip")
			assert.InDelta(t, tt.d.H, back.H, 1, "h should survive round trip")
		})
	}
}

func TestDetectionIoU(t *testing.T) {
	a := NewDetection(0, 0, 100, 100, 0.9)

	t.Run("identical boxes", func(t *testing.T) {
		assert.InDelta(t, 1.0, a.IoU(a), 1e-9)
	})

	t.Run("disjoint boxes", func(t *testing.T) {
		b := NewDetection(200, 200, 50, 50, 0.9)
		assert.Zero(t, a.IoU(b))
	})

	t.Run("half horizontal overlap", func(t *testing.T) {
		// Intersection 5000, union 15000.
		b := NewDetection(50, 0, 100, 100, 0.9)
		assert.InDelta(t, 1.0/3.0, a.IoU(b), 1e-9)
	})

	t.Run("degenerate union", func(t *testing.T) {
		z := NewDetection(0, 0, 0, 0, 0.9)
		assert.Zero(t, z.IoU(z), "zero-area boxes must not divide by zero")
	})

	t.Run("symmetry", func(t *testing.T) {
		b := NewDetection(30, 40, 80, 120, 0.5)
		assert.Equal(t, a.IoU(b), b.IoU(a))
	})
}
