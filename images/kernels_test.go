package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func kernelValues(t *testing.T, strength float32) [3][3]float32 {
	t.Helper()

	kernel := SharpenKernel(strength)
	defer kernel.Close()

	var values [3][3]float32
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			values[row][col] = kernel.GetFloatAt(row, col)
		}
	}
	return values
}

func TestSharpenKernelStrengthZeroIsIdentity(t *testing.T) {
	assert.Equal(t, identityKernel, kernelValues(t, 0))
}

func TestSharpenKernelStrengthOneIsEdge(t *testing.T) {
	assert.Equal(t, edgeKernel, kernelValues(t, 1))
}

func TestSharpenKernelInterpolatesMidpoint(t *testing.T) {
	values := kernelValues(t, 0.5)

	assert.InDelta(t, 3.0, values[1][1], 1e-6, "center blends 1 and 5")
	assert.InDelta(t, -0.5, values[0][1], 1e-6, "cross blends 0 and -1")
	assert.InDelta(t, 0.0, values[0][0], 1e-6, "corners stay zero")
}

func TestSharpenKernelClampsStrength(t *testing.T) {
	assert.Equal(t, kernelValues(t, 1), kernelValues(t, 2.5), "above 1 clamps to 1")
	assert.Equal(t, kernelValues(t, 0), kernelValues(t, -0.5), "below 0 clamps to 0")
}
