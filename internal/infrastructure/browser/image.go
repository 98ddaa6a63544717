package browser

import (
	"bytes"
	"fmt"

	"gui-agent/internal/domain/entity"

	"github.com/disintegration/imaging"
)

const (
	maxModelImageWidth = 1024
	modelJPEGQuality   = 75
)

// PrepareForModel shrinks a screenshot to at most 1024px wide and re-encodes
// it as JPEG so it stays cheap to send to the model. The file on disk keeps
// the original resolution.
func PrepareForModel(data []byte) (entity.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return entity.Image{}, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxModelImageWidth {
		img = imaging.Resize(img, maxModelImageWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(modelJPEGQuality)); err != nil {
		return entity.Image{}, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return entity.Image{
		Data:     buf.Bytes(),
		MIMEType: "image/jpeg",
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
	}, nil
}
