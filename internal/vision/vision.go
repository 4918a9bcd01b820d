// Package vision prepares images for multimodal models and asks them to
// identify what is shown.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io/fs"
	"os"

	"docqa/internal/domain"
	"docqa/internal/llm"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultPrompt asks the model to name the animal in the picture.
const DefaultPrompt = "请识别图片中的动物，并告诉我它的名称。"

const (
	maxSide     = 1024
	jpegQuality = 90
	temperature = 0.1
)

// Generator sends a prompt with images to a multimodal model.
type Generator interface {
	Generate(ctx context.Context, gr llm.GenerateRequest) (string, error)
}

// EncodeImage decodes the image at path, flattens any transparency onto
// white, shrinks it so neither side exceeds 1024 pixels and returns it as
// base64 JPEG without a data URL prefix.
func EncodeImage(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return "", err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %v", domain.ErrUnsupportedFormat, path, err)
	}

	sb := src.Bounds()
	w, h := thumbnailSize(sb.Dx(), sb.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// thumbnailSize keeps the aspect ratio while fitting w×h into maxSide.
func thumbnailSize(w, h int) (int, int) {
	if w <= maxSide && h <= maxSide {
		return w, h
	}
	if w >= h {
		return maxSide, max(1, h*maxSide/w)
	}
	return max(1, w*maxSide/h), maxSide
}

// Identify sends the image at path with prompt to g. An empty prompt uses
// DefaultPrompt.
func Identify(ctx context.Context, g Generator, path, prompt string) (string, error) {
	img, err := EncodeImage(path)
	if err != nil {
		return "", err
	}
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return g.Generate(ctx, llm.GenerateRequest{
		Prompt:  prompt,
		Images:  []string{img},
		Options: &llm.Options{Temperature: temperature},
	})
}
