package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

// DefaultFaceSize is the square edge, in pixels, of cropped face images.
// 160 matches the input size of FaceNet style models.
const DefaultFaceSize = 160

const jpegQuality = 90

// Decode decodes an encoded image (jpeg, png, bmp, webp)
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", domain.ErrInvalidImage.WithError(fmt.Errorf("empty image"))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", domain.ErrInvalidImage.WithError(err)
	}

	return img, format, nil
}

// FaceRect converts a bounding box into a pixel rectangle clipped to bounds
func FaceRect(box provider.BoundingBox, bounds image.Rectangle) image.Rectangle {
	x, y, w, h := box.X, box.Y, box.Width, box.Height
	if box.Relative {
		fw, fh := float64(bounds.Dx()), float64(bounds.Dy())
		x, y, w, h = x*fw, y*fh, w*fw, h*fh
	}

	r := image.Rect(
		bounds.Min.X+int(x),
		bounds.Min.Y+int(y),
		bounds.Min.X+int(x+w),
		bounds.Min.Y+int(y+h),
	)

	return r.Intersect(bounds)
}

// CropFace cuts the face region out of an encoded frame, scales it to a
// size x size square and re-encodes it as JPEG.
func CropFace(frame []byte, box provider.BoundingBox, size int) ([]byte, error) {
	img, _, err := Decode(frame)
	if err != nil {
		return nil, err
	}

	if size <= 0 {
		size = DefaultFaceSize
	}

	rect := FaceRect(box, img.Bounds())
	if rect.Empty() {
		return nil, domain.ErrNoFaceDetected.WithError(fmt.Errorf("face region %v outside frame %v", rect, img.Bounds()))
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode face crop: %w", err)
	}

	return buf.Bytes(), nil
}

// Normalize re-encodes any supported image as JPEG, scaled to fit maxSize
func Normalize(data []byte, maxSize int) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var out image.Image = img
	if maxSize > 0 && (width > maxSize || height > maxSize) {
		var newWidth, newHeight int
		if width > height {
			newWidth = maxSize
			newHeight = int(float64(height) * float64(maxSize) / float64(width))
		} else {
			newHeight = maxSize
			newWidth = int(float64(width) * float64(maxSize) / float64(height))
		}
		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		out = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	return buf.Bytes(), nil
}
