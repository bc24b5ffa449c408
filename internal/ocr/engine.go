package ocr

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"plate-watch/internal/domain/plate"
)

// ErrEngineUnavailable means the recognition engine failed to initialize or
// crashed. Callers surface it as a recoverable per-request failure.
var ErrEngineUnavailable = errors.New("text extraction engine unavailable")

const charWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// EnginePool owns a fixed set of Tesseract clients. Initialization loads the
// language model and configures the restricted character set, which is
// expensive, so it happens once, lazily: the first caller pays the cost and
// later requests reuse the warmed clients. Each client is handed to exactly
// one request at a time through the free list, which serializes access.
type EnginePool struct {
	size     int
	language string
	log      zerolog.Logger

	mu      sync.Mutex
	clients chan *gosseract.Client
	ready   bool
	closed  bool
}

func NewEnginePool(size int, language string, log zerolog.Logger) *EnginePool {
	if size < 1 {
		size = 1
	}
	return &EnginePool{
		size:     size,
		language: language,
		log:      log,
	}
}

// Recognize extracts a single line of text from an encoded image, with a
// confidence score in [0,100] averaged over the recognized words.
func (p *EnginePool) Recognize(ctx context.Context, imageBytes []byte) (plate.ExtractionResult, error) {
	var zero plate.ExtractionResult

	if err := p.ensureReady(); err != nil {
		return zero, err
	}

	var client *gosseract.Client
	select {
	case client = <-p.clients:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	defer func() { p.clients <- client }()

	if err := client.SetImageFromBytes(imageBytes); err != nil {
		return zero, fmt.Errorf("%w: set image: %v", ErrEngineUnavailable, err)
	}

	text, err := client.Text()
	if err != nil {
		return zero, fmt.Errorf("%w: extract text: %v", ErrEngineUnavailable, err)
	}

	confidence := p.averageConfidence(client)

	return plate.ExtractionResult{
		Text:       text,
		Confidence: confidence,
	}, nil
}

// averageConfidence averages word-level confidences reported by Tesseract.
// A frame with no recognized words scores zero.
func (p *EnginePool) averageConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		p.log.Debug().Err(err).Msg("failed to read word bounding boxes")
		return 0
	}

	var total float64
	var count int
	for _, box := range boxes {
		if box.Confidence > 0 {
			total += box.Confidence
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func (p *EnginePool) ensureReady() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("%w: pool is closed", ErrEngineUnavailable)
	}
	if p.ready {
		return nil
	}

	clients := make(chan *gosseract.Client, p.size)
	for i := 0; i < p.size; i++ {
		client, err := newClient(p.language)
		if err != nil {
			for len(clients) > 0 {
				(<-clients).Close()
			}
			return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
		clients <- client
	}

	p.clients = clients
	p.ready = true
	p.log.Info().
		Int("pool_size", p.size).
		Str("language", p.language).
		Msg("text extraction engine initialized")
	return nil
}

func newClient(language string) (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("set language: %w", err)
	}
	if err := client.SetWhitelist(charWhitelist); err != nil {
		client.Close()
		return nil, fmt.Errorf("set character whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	return client, nil
}

// Close releases every Tesseract client. The pool cannot be reused after.
func (p *EnginePool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if !p.ready {
		return nil
	}

	var errs []error
	for i := 0; i < p.size; i++ {
		client := <-p.clients
		if err := client.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.ready = false

	if len(errs) > 0 {
		return fmt.Errorf("closing engine pool: %v", errs)
	}
	return nil
}
