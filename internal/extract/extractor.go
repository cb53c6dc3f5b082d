package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docuquery/internal/pkg/pdfextract"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrFetch         = errors.New("document fetch failed")
	ErrExtraction    = errors.New("document text extraction failed")
	ErrInvalidWindow = errors.New("chunk overlap must be smaller than chunk size")
)

const maxRemoteSize = 50 << 20

// TextExtractor turns binary document bytes into plain text.
type TextExtractor func(data []byte) (string, error)

type Extractor struct {
	httpClient *http.Client
	binaryText TextExtractor
	maxRemote  int64
}

func NewExtractor(fetchTimeout time.Duration) *Extractor {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &Extractor{
		httpClient: &http.Client{Timeout: fetchTimeout},
		binaryText: pdfextract.ExtractText,
		maxRemote:  maxRemoteSize,
	}
}

// WithTextExtractor swaps the binary-text capability.
func (e *Extractor) WithTextExtractor(fn TextExtractor) *Extractor {
	e.binaryText = fn
	return e
}

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ExtractAndChunk loads source and returns its text split into chunks.
// Documents with no extractable text produce an empty slice.
func (e *Extractor) ExtractAndChunk(ctx context.Context, source string, size, overlap int) ([]string, error) {
	if err := ValidateWindow(size, overlap); err != nil {
		return nil, err
	}
	text, err := e.ExtractText(ctx, source)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return ChunkText(text, size, overlap), nil
}

// ExtractText loads source and returns its plain text.
func (e *Extractor) ExtractText(ctx context.Context, source string) (string, error) {
	if !IsRemote(source) && isPlainText(source) {
		raw, err := readLocal(source)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	var (
		raw []byte
		err error
	)
	if IsRemote(source) {
		raw, err = e.fetch(ctx, source)
	} else {
		raw, err = readLocal(source)
	}
	if err != nil {
		return "", err
	}

	text, err := e.binaryText(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return text, nil
}

func (e *Extractor) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrFetch, err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, e.maxRemote+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	if int64(len(raw)) > e.maxRemote {
		return nil, fmt.Errorf("%w: document too large (max %d bytes)", ErrFetch, e.maxRemote)
	}
	return raw, nil
}

func readLocal(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read document failed: %w", err)
	}
	return raw, nil
}

func isPlainText(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}
