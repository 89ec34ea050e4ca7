package images

import (
	"image"
	"image/jpeg"
	"os"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// thumbnailJPEGQuality trades size for fidelity on preview images.
const thumbnailJPEGQuality = 85

// Thumbnail downscales an image to at most maxWidth, preserving aspect
// ratio. Images already at or below the cap are returned unchanged.
func Thumbnail(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3)
}

// SaveThumbnail writes a JPEG preview of the frame to path.
//
// Arguments:
//   - frame: The frame to preview.
//   - maxWidth: Width cap for the preview.
//   - path: Destination file path.
//
// Returns:
//   - error: Conversion, file creation or encoding failure.
func SaveThumbnail(frame gocv.Mat, maxWidth int, path string) error {
	img, err := frame.ToImage()
	if err != nil {
		return errors.Wrap(err, "converting frame to image")
	}

	thumb := Thumbnail(img, maxWidth)

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating thumbnail %s", path)
	}
	defer f.Close()

	if err := jpeg.Encode(f, thumb, &jpeg.Options{Quality: thumbnailJPEGQuality}); err != nil {
		return errors.Wrap(err, "encoding thumbnail")
	}
	return nil
}
