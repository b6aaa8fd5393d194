package service

import (
	"context"
	"io"
)

// AttachmentStorage stores uploaded message and comment attachments and
// returns their public URL.
type AttachmentStorage interface {
	UploadFile(ctx context.Context, file io.Reader, contentType, folder string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
	Close() error
}
