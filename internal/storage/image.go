package storage

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/yatube/yatube/internal/apperror"
)

// DefaultMaxPixels bounds the decoded size of an upload. A small,
// highly compressed file can declare enormous dimensions.
const DefaultMaxPixels = 40_000_000

// ImageProcessor normalises uploads before they are stored: it rejects
// anything that is not a decodable image, applies EXIF orientation and
// shrinks the result to fit a bounding box.
type ImageProcessor struct {
	MaxWidth  int
	MaxHeight int
	MaxPixels int // width*height limit checked before decoding
}

// ProcessedImage is ready to hand to Storage.Upload.
type ProcessedImage struct {
	Data   []byte
	Mime   string
	Ext    string
	Width  int
	Height int
}

func NewImageProcessor(maxWidth, maxHeight int) *ImageProcessor {
	return &ImageProcessor{MaxWidth: maxWidth, MaxHeight: maxHeight, MaxPixels: DefaultMaxPixels}
}

// Process decodes data, downsizes it when larger than the box and encodes it
// again. JPEG input stays JPEG; every other format is stored as PNG.
func (p *ImageProcessor) Process(data []byte) (*ProcessedImage, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.ValidationFailed("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	if p.tooLarge(cfg.Width, cfg.Height) {
		return nil, apperror.ValidationFailed("image",
			fmt.Sprintf("Image dimensions %dx%d are too large.", cfg.Width, cfg.Height))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperror.ValidationFailed("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	bounds := img.Bounds()
	if p.MaxWidth > 0 && p.MaxHeight > 0 && (bounds.Dx() > p.MaxWidth || bounds.Dy() > p.MaxHeight) {
		img = imaging.Fit(img, p.MaxWidth, p.MaxHeight, imaging.Lanczos)
	}

	out := &ProcessedImage{Mime: "image/png", Ext: ".png"}
	encodeAs := imaging.PNG
	if format == "jpeg" {
		out.Mime, out.Ext, encodeAs = "image/jpeg", ".jpg", imaging.JPEG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, encodeAs, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("storage: encoding image: %w", err)
	}

	out.Data = buf.Bytes()
	out.Width = img.Bounds().Dx()
	out.Height = img.Bounds().Dy()
	return out, nil
}

// tooLarge reports whether a width x height image exceeds the pixel budget.
// It divides instead of multiplying so huge header values cannot overflow.
func (p *ImageProcessor) tooLarge(width, height int) bool {
	maxPixels := p.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if width <= 0 || height <= 0 {
		return false
	}
	return width > maxPixels/height
}
