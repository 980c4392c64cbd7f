package config

import (
	"context"
	"log/slog"

	"github.com/hairlab/stylist/pkg/domain/interfaces"
	"github.com/hairlab/stylist/pkg/service/imagestore"
	"github.com/hairlab/stylist/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Storage selects where uploaded photos are kept
type Storage struct {
	bucket string
}

func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "image-bucket",
			Usage:       "Cloud Storage bucket for uploaded photos (empty keeps them in memory)",
			Category:    "Storage",
			Sources:     cli.EnvVars("STYLIST_IMAGE_BUCKET"),
			Destination: &x.bucket,
		},
	}
}

func (x Storage) LogValue() slog.Value {
	return slog.GroupValue(slog.String("bucket", x.bucket))
}

// Configure returns the image store and a function releasing it
func (x *Storage) Configure(ctx context.Context) (interfaces.ImageStore, func(), error) {
	if x.bucket == "" {
		logging.Default().Info("Using in-memory image store (development mode)")
		return imagestore.NewMemory(), func() {}, nil
	}

	store, err := imagestore.NewGCS(ctx, x.bucket)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize image store", goerr.V("bucket", x.bucket))
	}
	return store, func() {
		if err := store.Close(); err != nil {
			logging.Default().Error("failed to close image store", "error", err)
		}
	}, nil
}
