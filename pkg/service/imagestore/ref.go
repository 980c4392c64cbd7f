package imagestore

import (
	"strings"

	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

func parseGCSRef(ref string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(ref, "gs://")
	if !ok {
		return "", "", goerr.Wrap(model.ErrValidation, "not a gs:// reference", goerr.V("ref", ref))
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", goerr.Wrap(model.ErrValidation, "malformed gs:// reference", goerr.V("ref", ref))
	}
	return bucket, object, nil
}
