package vision

import (
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docqa/internal/domain"
	"docqa/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, w, h int, fill color.Color) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func decode(t *testing.T, b64 string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	img, err := jpeg.Decode(strings.NewReader(string(raw)))
	require.NoError(t, err)
	return img
}

func TestEncodeImageShrinks(t *testing.T) {
	path := writePNG(t, 2048, 1024, color.NRGBA{R: 200, A: 255})

	out, err := EncodeImage(path)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(out, "data:"))

	img := decode(t, out)
	assert.Equal(t, 1024, img.Bounds().Dx())
	assert.Equal(t, 512, img.Bounds().Dy())
}

func TestEncodeImageKeepsSmallImages(t *testing.T) {
	path := writePNG(t, 40, 30, color.NRGBA{G: 255, A: 255})

	img := decode(t, mustEncode(t, path))
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())
}

func TestEncodeImageFlattensTransparency(t *testing.T) {
	path := writePNG(t, 16, 16, color.NRGBA{})

	img := decode(t, mustEncode(t, path))
	r, g, b, _ := img.At(8, 8).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestEncodeImageErrors(t *testing.T) {
	_, err := EncodeImage(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	path := filepath.Join(t.TempDir(), "notes.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	_, err = EncodeImage(path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestThumbnailSize(t *testing.T) {
	tests := []struct {
		w, h, wantW, wantH int
	}{
		{800, 600, 800, 600},
		{1024, 1024, 1024, 1024},
		{4000, 3000, 1024, 768},
		{300, 3000, 102, 1024},
		{5000, 2, 1024, 1},
	}
	for _, tt := range tests {
		w, h := thumbnailSize(tt.w, tt.h)
		assert.Equal(t, tt.wantW, w, "%dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wantH, h, "%dx%d", tt.w, tt.h)
	}
}

type recordingGenerator struct {
	got llm.GenerateRequest
}

func (g *recordingGenerator) Generate(ctx context.Context, gr llm.GenerateRequest) (string, error) {
	g.got = gr
	return "一只猫", nil
}

func TestIdentify(t *testing.T) {
	path := writePNG(t, 10, 10, color.NRGBA{B: 255, A: 255})
	g := &recordingGenerator{}

	out, err := Identify(context.Background(), g, path, "")
	require.NoError(t, err)
	assert.Equal(t, "一只猫", out)
	assert.Equal(t, DefaultPrompt, g.got.Prompt)
	require.Len(t, g.got.Images, 1)
	require.NotNil(t, g.got.Options)
	assert.InDelta(t, 0.1, g.got.Options.Temperature, 1e-9)

	_, err = Identify(context.Background(), g, path, "What is this?")
	require.NoError(t, err)
	assert.Equal(t, "What is this?", g.got.Prompt)
}

func TestIdentifyMissingImage(t *testing.T) {
	g := &recordingGenerator{}
	_, err := Identify(context.Background(), g, "/nonexistent/cat.jpg", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, g.got.Prompt)
}

func mustEncode(t *testing.T, path string) string {
	t.Helper()
	out, err := EncodeImage(path)
	require.NoError(t, err)
	return out
}
