package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func fill(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func createTestJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, fill(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, fill(w, h, color.RGBA{0, 0, 255, 255}))
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestProcessJPEG(t *testing.T) {
	photo, err := Processor{}.Process(bytes.NewReader(createTestJPEG(100, 100)))
	if err != nil {
		t.Fatalf("Process JPEG: %v", err)
	}
	if photo.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", photo.MIME)
	}
	if len(photo.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestProcessPNG(t *testing.T) {
	photo, err := Processor{}.Process(bytes.NewReader(createTestPNG(100, 100)))
	if err != nil {
		t.Fatalf("Process PNG: %v", err)
	}
	if photo.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg (always outputs JPEG), got %s", photo.MIME)
	}
}

func TestProcessDownscaleDefault(t *testing.T) {
	photo, err := Processor{}.Process(bytes.NewReader(createTestJPEG(2048, 1024)))
	if err != nil {
		t.Fatalf("Process large image: %v", err)
	}

	w, h := decodedSize(t, photo.Data)
	if w != DefaultMaxDimension || h != DefaultMaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", DefaultMaxDimension, DefaultMaxDimension/2, w, h)
	}
}

func TestProcessDownscaleConfigured(t *testing.T) {
	photo, err := Processor{MaxDimension: 64}.Process(bytes.NewReader(createTestPNG(100, 200)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	w, h := decodedSize(t, photo.Data)
	if w != 32 || h != 64 {
		t.Errorf("expected 32x64, got %dx%d", w, h)
	}
}

func TestProcessSmallImageNotUpscaled(t *testing.T) {
	photo, err := Processor{}.Process(bytes.NewReader(createTestJPEG(50, 50)))
	if err != nil {
		t.Fatalf("Process small image: %v", err)
	}

	if w, h := decodedSize(t, photo.Data); w != 50 || h != 50 {
		t.Errorf("small image should not be resized: got %dx%d", w, h)
	}
}

func TestProcessInvalidFormat(t *testing.T) {
	_, err := Processor{}.Process(bytes.NewReader([]byte("not an image")))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestProcessGIFRejected(t *testing.T) {
	_, err := Processor{}.Process(bytes.NewReader([]byte("GIF89a...")))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for GIF, got %v", err)
	}
}

func TestProcessTooLarge(t *testing.T) {
	data := make([]byte, MaxUploadBytes+10)
	copy(data, createTestJPEG(10, 10))
	if _, err := (Processor{}).Process(bytes.NewReader(data)); err == nil {
		t.Error("expected error for oversized upload")
	}
}
