package imagestore

import (
	"bytes"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// MaxImageSize is the largest accepted upload
const MaxImageSize = 10 << 20

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// objectName validates the upload and returns its object path
func objectName(userID, contentType string) (string, error) {
	if userID == "" {
		return "", goerr.Wrap(model.ErrValidation, "user ID is required to upload image")
	}
	ext, ok := extensions[contentType]
	if !ok {
		return "", goerr.Wrap(model.ErrValidation, "unsupported image type", goerr.V("content_type", contentType))
	}
	return path.Join("users", userID, "images", uuid.NewString()+ext), nil
}

// readLimited reads r fully, rejecting empty or oversized bodies
func readLimited(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read image")
	}
	if n == 0 {
		return nil, goerr.Wrap(model.ErrValidation, "image is empty")
	}
	if n > MaxImageSize {
		return nil, goerr.Wrap(model.ErrValidation, "image is too large", goerr.V("max_bytes", MaxImageSize))
	}
	return buf.Bytes(), nil
}

func gcsRef(bucket, object string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, object)
}
