package csimages

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

// Resize scales img down so its width does not exceed maxWidth, keeping the
// aspect ratio. Smaller images are returned untouched.
func Resize(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxWidth {
		return img
	}

	ratio := float64(maxWidth) / float64(width)
	newWidth := maxWidth
	newHeight := int(float64(height) * ratio)

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))

	// High quality interpolation
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst
}

// NormalizeDataURL decodes a base64 data URL, resizes the image to maxWidth
// and re-encodes it. PNG stays PNG to preserve transparency, everything else
// becomes JPEG quality 85. Payloads that are not decodable image data URLs
// are returned unchanged; the caller treats them as opaque references.
func NormalizeDataURL(data string, maxWidth int) (string, error) {
	payload, mediaType, ok := splitDataURL(data)
	if !ok || !strings.HasPrefix(mediaType, "image/") {
		return data, nil
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("invalid base64 image payload: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("image decode failed: %w", err)
	}

	resized := Resize(img, maxWidth)

	var buf bytes.Buffer
	outType := "image/jpeg"
	switch format {
	case "png":
		outType = "image/png"
		err = png.Encode(&buf, resized)
	default:
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return "", fmt.Errorf("image encode failed: %w", err)
	}

	return "data:" + outType + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// splitDataURL returns the base64 payload and media type of a
// "data:<type>;base64,<payload>" string.
func splitDataURL(data string) (payload, mediaType string, ok bool) {
	if !strings.HasPrefix(data, "data:") {
		return "", "", false
	}
	meta, payload, found := strings.Cut(data[len("data:"):], ",")
	if !found || !strings.HasSuffix(meta, ";base64") {
		return "", "", false
	}
	return payload, strings.TrimSuffix(meta, ";base64"), true
}
