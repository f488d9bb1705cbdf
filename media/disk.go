package media

import (
	"chat-dm/contract"
	"chat-dm/errors"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var _ contract.MediaUploader = (*DiskUploader)(nil)

// DiskUploader stores images in a local directory served by the HTTP layer under baseURL.
type DiskUploader struct {
	dir      string
	baseURL  string
	maxBytes int
	log      *slog.Logger
}

func NewDiskUploader(log *slog.Logger, dir, baseURL string, maxBytes int) (*DiskUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media directory %s: %w", dir, err)
	}
	return &DiskUploader{
		dir:      dir,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		maxBytes: maxBytes,
		log:      log,
	}, nil
}

func (d *DiskUploader) Upload(ctx context.Context, raw string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrMediaUpload, err)
	}
	img, err := DecodeImage(raw, d.maxBytes)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + img.MIME.Extension()
	if err := os.WriteFile(filepath.Join(d.dir, name), img.Data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrMediaUpload, err)
	}
	d.log.Debug("Image stored", "name", name, "mime", img.MIME.String(), "bytes", len(img.Data))
	return d.baseURL + "/" + name, nil
}
