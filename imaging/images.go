package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/disintegration/gift"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const JPEGQuality = 90

// MaxSourcePixels bounds the images DecodeSource accepts, about a 100 megapixel photo.
const MaxSourcePixels = 100_000_000

var ErrUnsupportedFormat = errors.New("unsupported image format")

// FormatFromExtension maps a file extension (with or without dot) to an image format name.
func FormatFromExtension(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg":
		return "jpeg"
	case "png":
		return "png"
	case "gif":
		return "gif"
	case "bmp":
		return "bmp"
	case "tif", "tiff":
		return "tiff"
	case "webp":
		return "webp"
	default:
		return ""
	}
}

// Decode reads an image and rejects anything larger than MaxImageWidth x MaxImageHeight.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxImageWidth || bounds.Dy() > MaxImageHeight {
		return nil, "", fmt.Errorf("image too large (max %dx%d)", MaxImageWidth, MaxImageHeight)
	}

	return img, format, nil
}

// DecodeSource reads a stored original for thumbnailing. Unlike Decode it accepts any
// size up to MaxSourcePixels, checked from the header before the pixels are decoded.
func DecodeSource(r io.Reader) (image.Image, string, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width*cfg.Height > MaxSourcePixels {
		return nil, "", fmt.Errorf("image too large (%dx%d, max %d pixels)", cfg.Width, cfg.Height, MaxSourcePixels)
	}

	img, format, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

func Encode(w io.Writer, img image.Image, format string) error {
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case "png":
		err = png.Encode(w, img)
	case "gif":
		err = gif.Encode(w, img, nil)
	case "bmp":
		err = bmp.Encode(w, img)
	case "tiff":
		err = tiff.Encode(w, img, nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// EncodeToReader encodes img into memory.
func EncodeToReader(img image.Image, format string) (*bytes.Reader, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, format); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// AdaptiveResize scales the image to cover width x height and crops the overflow around the center.
// Without resizeUp an image smaller than the box is only cropped, never enlarged.
func AdaptiveResize(bounds image.Rectangle, width, height int, resizeUp bool) gift.Filter {
	if !resizeUp && (bounds.Dx() < width || bounds.Dy() < height) {
		return gift.CropToSize(min(width, bounds.Dx()), min(height, bounds.Dy()), gift.CenterAnchor)
	}
	return gift.ResizeToFill(width, height, gift.LanczosResampling, gift.CenterAnchor)
}

func Process(src image.Image, filters ...gift.Filter) image.Image {
	g := gift.New(filters...)
	dst := image.NewRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst
}
