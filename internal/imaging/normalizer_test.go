package imaging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

func TestNormalizeInvalidBytesReturnsOriginal(t *testing.T) {
	n := NewNormalizer(zerolog.Nop())

	original := []byte("definitely not an image")
	got := n.Normalize(original)

	if !bytes.Equal(got, original) {
		t.Errorf("Normalize on undecodable input must return the original bytes unchanged")
	}
}

func TestNormalizeEmptyInputReturnsOriginal(t *testing.T) {
	n := NewNormalizer(zerolog.Nop())

	got := n.Normalize(nil)
	if got != nil {
		t.Errorf("Normalize(nil) = %v, want nil back", got)
	}
}

func TestNormalizeDownscalesLargeImage(t *testing.T) {
	n := NewNormalizer(zerolog.Nop())

	src := gocv.NewMatWithSize(1200, 1600, gocv.MatTypeCV8UC3)
	defer src.Close()
	buf, err := gocv.IMEncode(".png", src)
	if err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	defer buf.Close()
	input := append([]byte(nil), buf.GetBytes()...)

	got := n.Normalize(input)
	if bytes.Equal(got, input) {
		t.Fatalf("Normalize returned input unchanged for a valid image")
	}

	out, err := gocv.IMDecode(got, gocv.IMReadGrayScale)
	if err != nil {
		t.Fatalf("decode normalized image: %v", err)
	}
	defer out.Close()

	if out.Cols() > 800 || out.Rows() > 600 {
		t.Errorf("normalized image is %dx%d, want bounded by 800x600", out.Cols(), out.Rows())
	}
	// Aspect ratio is preserved: 1600x1200 scaled by 0.5.
	if out.Cols() != 800 || out.Rows() != 600 {
		t.Errorf("normalized image is %dx%d, want 800x600", out.Cols(), out.Rows())
	}
}

func TestNormalizeKeepsSmallImageSize(t *testing.T) {
	n := NewNormalizer(zerolog.Nop())

	src := gocv.NewMatWithSize(100, 200, gocv.MatTypeCV8UC3)
	defer src.Close()
	buf, err := gocv.IMEncode(".png", src)
	if err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	defer buf.Close()

	got := n.Normalize(append([]byte(nil), buf.GetBytes()...))
	out, err := gocv.IMDecode(got, gocv.IMReadGrayScale)
	if err != nil {
		t.Fatalf("decode normalized image: %v", err)
	}
	defer out.Close()

	if out.Cols() != 200 || out.Rows() != 100 {
		t.Errorf("small image was resized to %dx%d, want 200x100 unchanged", out.Cols(), out.Rows())
	}
}
