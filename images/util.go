package images

import (
	"crypto/md5"
	"fmt"

	"gocv.io/x/gocv"
)

// MatChecksum returns a deterministic hex digest of a Mat's pixel data,
// used to verify that conditioning never mutates its input frame.
func MatChecksum(mat gocv.Mat) string {
	if mat.Empty() {
		return "empty"
	}

	data, _ := mat.DataPtrUint8()
	hash := md5.New()
	hash.Write(data)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
