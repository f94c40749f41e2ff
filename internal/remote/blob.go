package remote

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/simpleshare/client/internal/models"
)

// CloudBlobStore implements BlobStore on a Cloud Storage bucket using the
// Firebase download-token scheme: each object carries a token in its metadata
// and is addressable through a stable firebasestorage.googleapis.com URL.
type CloudBlobStore struct {
	bucket     *storage.BucketHandle
	bucketName string
}

func NewCloudBlobStore(bucket *storage.BucketHandle, bucketName string) *CloudBlobStore {
	return &CloudBlobStore{bucket: bucket, bucketName: bucketName}
}

func (b *CloudBlobStore) Upload(ctx context.Context, objectPath string, src models.UploadSource, meta map[string]string) (string, error) {
	token := uuid.New().String()

	md := map[string]string{}
	for k, v := range meta {
		md[k] = v
	}
	md["firebaseStorageDownloadTokens"] = token

	w := b.bucket.Object(objectPath).NewWriter(ctx)
	w.Metadata = md

	var werr error
	switch s := src.(type) {
	case models.BytesSource:
		w.ContentType = s.ContentType
		_, werr = w.Write(s.Data)
	case models.FileSource:
		w.ContentType = s.ContentType
		var f *os.File
		f, werr = os.Open(s.Path)
		if werr == nil {
			_, werr = io.Copy(w, f)
			f.Close()
		}
	default:
		werr = fmt.Errorf("unsupported upload source %T", src)
	}
	if werr != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", objectPath, werr)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}

	return downloadURL(b.bucketName, objectPath, token), nil
}

func (b *CloudBlobStore) DeleteByURL(ctx context.Context, fileURL string) error {
	objectPath, err := objectPathFromURL(fileURL)
	if err != nil {
		return err
	}
	if err := b.bucket.Object(objectPath).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", objectPath, err)
	}
	return nil
}

// downloadURL builds the stable Firebase-style download URL for an object.
// https://firebasestorage.googleapis.com/v0/b/{bucket}/o/{path}?alt=media&token={token}
func downloadURL(bucket, objectPath, token string) string {
	return fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket,
		url.PathEscape(objectPath),
		url.QueryEscape(token),
	)
}

// objectPathFromURL recovers the object path from a download URL.
func objectPathFromURL(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parse file url: %w", err)
	}
	_, escaped, found := strings.Cut(u.Path, "/o/")
	if !found || escaped == "" {
		return "", fmt.Errorf("not a download url: %s", fileURL)
	}
	objectPath, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("unescape object path: %w", err)
	}
	return objectPath, nil
}
