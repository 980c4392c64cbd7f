package imagestore

import (
	"bytes"
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/hairlab/stylist/pkg/domain/interfaces"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// GCS stores user photos in a Cloud Storage bucket and returns gs:// references
type GCS struct {
	client *storage.Client
	bucket string
}

var _ interfaces.ImageStore = (*GCS)(nil)

func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("GCS bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	return &GCS{client: client, bucket: bucket}, nil
}

func (s *GCS) Upload(ctx context.Context, userID, contentType string, r io.Reader) (string, error) {
	name, err := objectName(userID, contentType)
	if err != nil {
		return "", err
	}
	data, err := readLimited(r)
	if err != nil {
		return "", err
	}

	w := s.client.Bucket(s.bucket).Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(errors.Join(model.ErrPersistence, err), "failed to write image", goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(errors.Join(model.ErrPersistence, err), "failed to finalize image upload", goerr.V("object", name))
	}

	return gcsRef(s.bucket, name), nil
}

// Read returns the object behind a gs:// reference created by Upload
func (s *GCS) Read(ctx context.Context, ref string) ([]byte, error) {
	bucket, name, err := parseGCSRef(ref)
	if err != nil {
		return nil, err
	}

	rd, err := s.client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(model.ErrNotFound, "image not found", goerr.V("ref", ref))
		}
		return nil, goerr.Wrap(errors.Join(model.ErrPersistence, err), "failed to open image", goerr.V("ref", ref))
	}
	defer safe.Close(ctx, rd)

	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, goerr.Wrap(errors.Join(model.ErrPersistence, err), "failed to read image", goerr.V("ref", ref))
	}
	return data, nil
}

func (s *GCS) Close() error {
	return s.client.Close()
}
