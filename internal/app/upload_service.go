package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var ErrUnsupportedFile = errors.New("only PDF, TXT and MD files are allowed")

var allowedUploadExt = map[string]bool{".pdf": true, ".txt": true, ".md": true}

type UploadService struct {
	dir string
	now func() time.Time
}

type UploadResult struct {
	FilePath     string `json:"filePath"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	Size         int64  `json:"size"`
}

func NewUploadService(dir string) *UploadService {
	if dir == "" {
		dir = "uploads"
	}
	return &UploadService{dir: dir, now: time.Now}
}

// Save stores the upload under a timestamp-derived name and returns a path
// AnswerQuestions accepts.
func (s *UploadService) Save(originalName string, r io.Reader) (*UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedUploadExt[ext] {
		return nil, ErrUnsupportedFile
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}

	f, name, err := s.create(ext)
	if err != nil {
		return nil, err
	}
	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(filepath.Join(s.dir, name))
		if copyErr != nil {
			return nil, fmt.Errorf("write upload failed: %w", copyErr)
		}
		return nil, fmt.Errorf("close upload failed: %w", closeErr)
	}

	return &UploadResult{
		FilePath:     filepath.ToSlash(filepath.Join(s.dir, name)),
		Filename:     name,
		OriginalName: originalName,
		Size:         size,
	}, nil
}

func (s *UploadService) create(ext string) (*os.File, string, error) {
	base := strconv.FormatInt(s.now().UnixMilli(), 10)
	for i := 0; i < 100; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("create upload file failed: %w", err)
		}
	}
	return nil, "", fmt.Errorf("create upload file failed: too many uploads at %s", base)
}
