package imaging

import (
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

const (
	maxWidth  = 800
	maxHeight = 600

	binarizeThreshold = 128
)

// Normalizer prepares a frame for text extraction: bounded downscale,
// grayscale, contrast stretch, sharpen, binarize. Normalization is a
// best-effort accelerant; it never fails the pipeline.
type Normalizer struct {
	log zerolog.Logger
}

func NewNormalizer(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize returns an encoded image optimized for character extraction.
// On any failure the original bytes come back unchanged.
func (n *Normalizer) Normalize(imageBytes []byte) []byte {
	out, err := n.transform(imageBytes)
	if err != nil {
		n.log.Warn().Err(err).Msg("image normalization failed, using original image")
		return imageBytes
	}
	return out
}

func (n *Normalizer) transform(imageBytes []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("normalize panic: %v", r)
		}
	}()

	src, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer src.Close()
	if src.Empty() {
		return nil, errors.New("decoded image is empty")
	}

	// Downscale only, preserving aspect ratio. Upscaling adds no detail.
	working := src
	resized := gocv.NewMat()
	defer resized.Close()

	cols := src.Cols()
	rows := src.Rows()
	scale := 1.0
	if s := float64(maxWidth) / float64(cols); s < scale {
		scale = s
	}
	if s := float64(maxHeight) / float64(rows); s < scale {
		scale = s
	}
	if scale < 1.0 {
		target := image.Pt(int(float64(cols)*scale), int(float64(rows)*scale))
		gocv.Resize(src, &resized, target, 0, 0, gocv.InterpolationArea)
		working = resized
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(working, &gray, gocv.ColorBGRToGray)

	// Stretch the intensity histogram to the full 0-255 range.
	stretched := gocv.NewMat()
	defer stretched.Close()
	gocv.Normalize(gray, &stretched, 0, 255, gocv.NormMinMax)

	sharpened := gocv.NewMat()
	defer sharpened.Close()
	kernel := sharpenKernel()
	defer kernel.Close()
	gocv.Filter2D(stretched, &sharpened, -1, kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(sharpened, &binary, binarizeThreshold, 255, gocv.ThresholdBinary)

	buf, err := gocv.IMEncode(".png", binary)
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

func sharpenKernel() gocv.Mat {
	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	values := [3][3]float32{
		{0, -1, 0},
		{-1, 5, -1},
		{0, -1, 0},
	}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			kernel.SetFloatAt(row, col, values[row][col])
		}
	}
	return kernel
}
