package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	img, format, err := Decode(testPNG(t, 20, 10))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 20, img.Bounds().Dx())

	_, _, err = Decode(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	_, _, err = Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}

func TestFaceRect(t *testing.T) {
	bounds := image.Rect(0, 0, 200, 100)

	tests := []struct {
		name string
		box  provider.BoundingBox
		want image.Rectangle
	}{
		{
			name: "absolute pixels",
			box:  provider.BoundingBox{X: 10, Y: 20, Width: 50, Height: 40},
			want: image.Rect(10, 20, 60, 60),
		},
		{
			name: "relative box",
			box:  provider.BoundingBox{X: 0.25, Y: 0.5, Width: 0.5, Height: 0.5, Relative: true},
			want: image.Rect(50, 50, 150, 100),
		},
		{
			name: "clipped to frame",
			box:  provider.BoundingBox{X: 180, Y: 80, Width: 50, Height: 50},
			want: image.Rect(180, 80, 200, 100),
		},
		{
			name: "outside frame",
			box:  provider.BoundingBox{X: 300, Y: 300, Width: 10, Height: 10},
			want: image.Rectangle{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FaceRect(tt.box, bounds)
			if tt.want.Empty() {
				assert.True(t, got.Empty())
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCropFace(t *testing.T) {
	frame := testPNG(t, 120, 80)

	crop, err := CropFace(frame, provider.BoundingBox{X: 10, Y: 10, Width: 40, Height: 40}, 32)
	require.NoError(t, err)

	img, format, err := Decode(crop)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())

	_, err = CropFace(frame, provider.BoundingBox{X: 500, Y: 500, Width: 5, Height: 5}, 32)
	assert.ErrorIs(t, err, domain.ErrNoFaceDetected)

	_, err = CropFace([]byte("junk"), provider.BoundingBox{Width: 1, Height: 1}, 32)
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}

func TestNormalize(t *testing.T) {
	out, err := Normalize(testPNG(t, 400, 200), 100)
	require.NoError(t, err)

	img, format, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	out, err = Normalize(testPNG(t, 40, 20), 100)
	require.NoError(t, err)
	img, _, err = Decode(out)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
}
