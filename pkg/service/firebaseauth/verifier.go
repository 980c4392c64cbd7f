package firebaseauth

import (
	"context"
	"time"

	"github.com/hairlab/stylist/pkg/domain/model/auth"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
)

// GoogleJWKSURL serves the public keys that sign Firebase ID tokens
const GoogleJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// Verifier validates Firebase ID tokens and returns the signed-in user
type Verifier struct {
	projectID string
	keySet    jwk.Set
	jwksURL   string
	now       func() time.Time
}

type Option func(*Verifier)

// WithKeySet uses a fixed key set instead of fetching Google's JWKS
func WithKeySet(set jwk.Set) Option {
	return func(v *Verifier) {
		v.keySet = set
	}
}

func WithJWKSURL(url string) Option {
	return func(v *Verifier) {
		v.jwksURL = url
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// New creates a Verifier for the Firebase project. Without WithKeySet, Google's key set is
// fetched once here and refreshed in the background while ctx is alive.
func New(ctx context.Context, projectID string, opts ...Option) (*Verifier, error) {
	if projectID == "" {
		return nil, goerr.New("firebase project ID is required")
	}

	v := &Verifier{
		projectID: projectID,
		jwksURL:   GoogleJWKSURL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	if v.keySet == nil {
		cache := jwk.NewCache(ctx)
		if err := cache.Register(v.jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
			return nil, goerr.Wrap(err, "failed to register JWKS", goerr.V("jwks_url", v.jwksURL))
		}
		if _, err := cache.Refresh(ctx, v.jwksURL); err != nil {
			return nil, goerr.Wrap(err, "failed to fetch Firebase public keys", goerr.V("jwks_url", v.jwksURL))
		}
		v.keySet = jwk.NewCachedSet(cache, v.jwksURL)
	}

	return v, nil
}

// Issuer returns the expected iss claim
func (v *Verifier) Issuer() string {
	return "https://securetoken.google.com/" + v.projectID
}

// Verify checks signature, issuer, audience and expiry of idToken
func (v *Verifier) Verify(ctx context.Context, idToken string) (*auth.User, error) {
	token, err := jwt.Parse([]byte(idToken),
		jwt.WithKeySet(v.keySet, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.Issuer()),
		jwt.WithAudience(v.projectID),
		jwt.WithClock(jwt.ClockFunc(v.now)),
		jwt.WithAcceptableSkew(10*time.Second),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse or verify Firebase ID token")
	}

	sub := token.Subject()
	if sub == "" {
		return nil, goerr.New("sub claim not found in token")
	}

	user := &auth.User{ID: sub}
	if email, ok := token.Get("email"); ok {
		user.Email, _ = email.(string)
	}
	if name, ok := token.Get("name"); ok {
		user.Name, _ = name.(string)
	}

	return user, nil
}
