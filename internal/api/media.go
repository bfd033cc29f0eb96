package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

type uploadRecord struct {
	URL string `json:"url"`
}

func (r *uploadRecord) validate() error {
	if r.URL == "" {
		return errors.New("upload response without url")
	}
	return nil
}

// UploadMedia posts one file as multipart form data (POST /media) and returns
// its public URL.
func (c *Client) UploadMedia(ctx context.Context, name string, content io.Reader) (string, error) {
	if err := requireID("file name", name); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	var rec uploadRecord
	if err := c.send(ctx, http.MethodPost, "/media", &buf, mw.FormDataContentType(), &rec, nil); err != nil {
		return "", err
	}
	return rec.URL, nil
}
