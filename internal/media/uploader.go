package media

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Sink stores one file and returns its public URL.
type Sink interface {
	UploadMedia(ctx context.Context, name string, content io.Reader) (string, error)
}

type File struct {
	Name    string
	Content io.Reader
}

type Uploader struct {
	sink Sink
	log  *zap.Logger
}

func NewUploader(sink Sink, log *zap.Logger) *Uploader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{sink: sink, log: log}
}

// UploadAll uploads files one after another. It stops at the first failure and
// returns the URLs of the uploads that completed before it.
func (u *Uploader) UploadAll(ctx context.Context, files []File) ([]string, error) {
	urls := make([]string, 0, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return urls, err
		}
		url, err := u.sink.UploadMedia(ctx, f.Name, f.Content)
		if err != nil {
			u.log.Warn("upload failed", zap.String("file", f.Name), zap.Int("index", i), zap.Int("completed", len(urls)), zap.Error(err))
			return urls, fmt.Errorf("upload %s: %w", f.Name, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}
