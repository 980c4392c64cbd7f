package imagestore

import (
	"context"
	"io"
	"sync"

	"github.com/hairlab/stylist/pkg/domain/interfaces"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// Memory keeps photos in process memory. References look like gs:// refs of a fake bucket.
type Memory struct {
	bucket string
	mu     sync.RWMutex
	images map[string][]byte
}

var _ interfaces.ImageStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		bucket: "memory",
		images: make(map[string][]byte),
	}
}

func (s *Memory) Upload(ctx context.Context, userID, contentType string, r io.Reader) (string, error) {
	name, err := objectName(userID, contentType)
	if err != nil {
		return "", err
	}
	data, err := readLimited(r)
	if err != nil {
		return "", err
	}

	ref := gcsRef(s.bucket, name)
	s.mu.Lock()
	s.images[ref] = data
	s.mu.Unlock()

	return ref, nil
}

func (s *Memory) Read(ctx context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.images[ref]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "image not found", goerr.V("ref", ref))
	}
	return data, nil
}
