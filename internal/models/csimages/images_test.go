package csimages

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURL(t *testing.T, width, height int) string {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestResize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2000, 1000))

	resized := Resize(img, 800)
	assert.Equal(t, 800, resized.Bounds().Dx())
	assert.Equal(t, 400, resized.Bounds().Dy())

	// Une image déjà assez petite n'est pas touchée.
	small := image.NewRGBA(image.Rect(0, 0, 100, 50))
	assert.Equal(t, small, Resize(small, 800))
}

func TestNormalizeDataURL_ResizesLargePNG(t *testing.T) {
	data := pngDataURL(t, 2000, 500)

	out, err := NormalizeDataURL(data, 800)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, "data:image/png;base64,"))
	require.NoError(t, err)
	img, format, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestNormalizeDataURL_SmallImageKeepsSize(t *testing.T) {
	data := pngDataURL(t, 100, 100)

	out, err := NormalizeDataURL(data, 800)
	require.NoError(t, err)

	raw, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, "data:image/png;base64,"))
	img, _, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestNormalizeDataURL_OpaquePayloads(t *testing.T) {
	// Pas une data URL : renvoyée telle quelle.
	out, err := NormalizeDataURL("/static/img/team.jpg", 800)
	require.NoError(t, err)
	assert.Equal(t, "/static/img/team.jpg", out)

	// Data URL non image : idem.
	out, err = NormalizeDataURL("data:text/plain;base64,aGVsbG8=", 800)
	require.NoError(t, err)
	assert.Equal(t, "data:text/plain;base64,aGVsbG8=", out)

	// Payload image invalide : erreur.
	_, err = NormalizeDataURL("data:image/png;base64,aGVsbG8=", 800)
	assert.Error(t, err)
}
