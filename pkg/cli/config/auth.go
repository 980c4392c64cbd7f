package config

import (
	"context"
	"log/slog"

	"github.com/hairlab/stylist/pkg/service/firebaseauth"
	"github.com/hairlab/stylist/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Auth selects how API callers are authenticated
type Auth struct {
	firebaseProjectID string
	noAuthUID         string
	productAdmins     []string
}

func (x *Auth) Flags() []cli.Flag {
	category := "Authentication"
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firebase-project-id",
			Usage:       "Firebase project whose ID tokens are accepted",
			Category:    category,
			Sources:     cli.EnvVars("STYLIST_FIREBASE_PROJECT_ID"),
			Destination: &x.firebaseProjectID,
		},
		&cli.StringFlag{
			Name:        "no-auth",
			Usage:       "Skip authentication and run every request as the given user ID (development only). Example: --no-auth=dev-user",
			Category:    category,
			Sources:     cli.EnvVars("STYLIST_NO_AUTH"),
			Destination: &x.noAuthUID,
		},
		&cli.StringSliceFlag{
			Name:        "product-admin",
			Usage:       "User ID allowed to change the product catalog (repeatable; none means any user)",
			Category:    category,
			Sources:     cli.EnvVars("STYLIST_PRODUCT_ADMINS"),
			Destination: &x.productAdmins,
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("firebase_project_id", x.firebaseProjectID),
		slog.Bool("no_auth", x.noAuthUID != ""),
		slog.Int("product_admins", len(x.productAdmins)),
	)
}

// NoAuthUID returns the fixed user ID of no-auth mode
func (x *Auth) NoAuthUID() string {
	return x.noAuthUID
}

func (x *Auth) ProductAdmins() []string {
	return x.productAdmins
}

// Configure returns the Firebase token verifier, or nil in no-auth mode
func (x *Auth) Configure(ctx context.Context) (*firebaseauth.Verifier, error) {
	switch {
	case x.firebaseProjectID != "" && x.noAuthUID != "":
		return nil, goerr.New("--firebase-project-id and --no-auth are mutually exclusive")

	case x.noAuthUID != "":
		logging.Default().Warn("Running in no-auth mode (development only)", "user_id", x.noAuthUID)
		return nil, nil

	case x.firebaseProjectID == "":
		return nil, goerr.New("either --firebase-project-id or --no-auth is required")
	}

	v, err := firebaseauth.New(ctx, x.firebaseProjectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize Firebase token verifier")
	}
	logging.Default().Info("Firebase authentication enabled", "issuer", v.Issuer())
	return v, nil
}
