package images

import "gocv.io/x/gocv"

// identityKernel passes pixels through unchanged; edgeKernel is the
// classic 4-neighbor sharpening stencil.
var (
	identityKernel = [3][3]float32{
		{0, 0, 0},
		{0, 1, 0},
		{0, 0, 0},
	}
	edgeKernel = [3][3]float32{
		{0, -1, 0},
		{-1, 5, -1},
		{0, -1, 0},
	}
)

// SharpenKernel builds the 3x3 unsharp convolution kernel for the given
// strength: identity*(1-s) + edge*s. Strength is clamped to [0, 1]. The
// caller owns the returned Mat.
func SharpenKernel(strength float32) gocv.Mat {
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			value := identityKernel[row][col]*(1-strength) + edgeKernel[row][col]*strength
			kernel.SetFloatAt(row, col, value)
		}
	}
	return kernel
}
