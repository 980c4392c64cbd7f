package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/hairlab/stylist/pkg/cli/config"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/service/builder"
	"github.com/hairlab/stylist/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// cmdConsult asks for one recommendation from the command line without starting the server
func cmdConsult() *cli.Command {
	var userID string
	var imageRef string
	var attrs []string
	var preference string
	var appCfg config.App
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var gatewayCfg config.Gateway

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Usage:       "User ID the consultation is made for",
			Value:       "cli",
			Destination: &userID,
		},
		&cli.StringFlag{
			Name:        "image",
			Usage:       "Image reference of the user's photo",
			Required:    true,
			Destination: &imageRef,
		},
		&cli.StringSliceFlag{
			Name:        "attr",
			Aliases:     []string{"a"},
			Usage:       "Hair or face attribute as key=value (repeatable)",
			Destination: &attrs,
		},
		&cli.StringFlag{
			Name:        "preference",
			Aliases:     []string{"p"},
			Usage:       "Free text preference",
			Destination: &preference,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, gatewayCfg.Flags()...)

	return &cli.Command{
		Name:  "consult",
		Usage: "Ask the AI stylist for a recommendation and print it",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			attributes, err := parseAttributes(attrs)
			if err != nil {
				return err
			}

			app, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load application config")
			}

			llm, err := geminiCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if llm == nil {
				return goerr.New("--gemini-project is required for consult")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() { _ = repo.Close() }()

			gw, err := gatewayCfg.Configure(llm, repo.Product(), app.Language)
			if err != nil {
				return err
			}

			uc, err := usecase.New(repo,
				usecase.WithGateway(gw),
				usecase.WithBuilder(builder.New(builder.WithAllowedAttributes(app.AllowedAttributes()...))),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize use cases")
			}

			result, err := uc.Consultation.Consult(ctx, usecase.ConsultInput{
				UserID:     userID,
				ImageRef:   imageRef,
				Attributes: attributes,
				Preference: preference,
			})
			if err != nil {
				return err
			}

			printRecommendation(os.Stdout, result.Fingerprint, result.Recommendation)
			return nil
		},
	}
}

// parseAttributes turns key=value pairs into a map. Duplicate keys are rejected.
func parseAttributes(pairs []string) (map[string]string, error) {
	attrs := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, goerr.Wrap(model.ErrValidation, "attribute must be key=value", goerr.V("attr", pair))
		}
		key = strings.TrimSpace(key)
		if _, dup := attrs[key]; dup {
			return nil, goerr.Wrap(model.ErrValidation, "duplicate attribute", goerr.V("attr", key))
		}
		attrs[key] = strings.TrimSpace(value)
	}
	return attrs, nil
}

func printRecommendation(w io.Writer, fp model.Fingerprint, rec *model.Recommendation) {
	title := color.New(color.FgHiCyan, color.Bold)
	label := color.New(color.FgHiWhite, color.Bold)

	title.Fprintln(w, rec.StyleName)
	fmt.Fprintln(w, rec.Description)
	fmt.Fprintln(w)
	label.Fprint(w, "Confidence: ")
	fmt.Fprintf(w, "%.0f%%\n", rec.Confidence.Float64()*100)
	if len(rec.Products) > 0 {
		label.Fprint(w, "Products:   ")
		fmt.Fprintln(w, strings.Join(rec.Products, ", "))
	}
	label.Fprint(w, "Fingerprint: ")
	color.New(color.Faint).Fprintln(w, fp)
}
