package cli

import (
	"context"

	"github.com/hairlab/stylist/pkg/cli/config"
	"github.com/hairlab/stylist/pkg/usecase"
	"github.com/hairlab/stylist/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdSeed() *cli.Command {
	var appCfg config.App
	var repoCfg config.Repository

	flags := append(appCfg.Flags(), repoCfg.Flags()...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Populate an empty product catalog from the config file or the built-in sample",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			app, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load application config")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() { _ = repo.Close() }()

			uc, err := usecase.New(repo)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize use cases")
			}

			n, err := uc.Product.Seed(ctx, app.CatalogSeed())
			if err != nil {
				return err
			}

			logging.Default().Info("Seed finished", "created", n)
			return nil
		},
	}
}
