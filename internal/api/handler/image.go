package handler

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

const maxImageSize = 10 * 1024 * 1024

var errMissingImage = errors.New("image is required")

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// imageFromForm reads the "image" multipart field. A missing field or an
// empty part means nothing was captured and returns (nil, "", nil).
func imageFromForm(c *fiber.Ctx) ([]byte, string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
			return nil, "", nil
		}
		return nil, "", domain.ErrValidationFailed.WithError(err)
	}

	if file.Size == 0 {
		return nil, "", nil
	}
	if file.Size > maxImageSize {
		return nil, "", domain.ErrInvalidImage.WithError(errors.New("image exceeds 10MB"))
	}

	contentType := file.Header.Get(fiber.HeaderContentType)
	if !validImageTypes[contentType] {
		return nil, "", domain.ErrInvalidImage.WithError(errors.New("unsupported content type " + contentType))
	}

	f, err := file.Open()
	if err != nil {
		return nil, "", domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", domain.ErrInvalidImage.WithError(err)
	}

	return data, contentType, nil
}
