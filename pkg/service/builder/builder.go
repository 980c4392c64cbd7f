package builder

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

const (
	maxAttributeValueLen = 200
	maxPreferenceLen     = 2000
)

// Builder assembles normalized ConsultationRequests
type Builder struct {
	allowed map[types.AttributeKey]struct{}
	now     func() time.Time
}

type Option func(*Builder)

// WithAllowedAttributes restricts attribute keys to the given set. An empty set allows any valid key.
func WithAllowedAttributes(keys ...types.AttributeKey) Option {
	return func(b *Builder) {
		for _, k := range keys {
			b.allowed[k] = struct{}{}
		}
	}
}

// WithClock replaces the timestamp source
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

func New(opts ...Option) *Builder {
	b := &Builder{
		allowed: make(map[types.AttributeKey]struct{}),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build normalizes the inputs and returns an immutable request. Attribute keys are trimmed and
// lower-cased, values are trimmed and dropped when empty. Returns a model.ErrValidation error when
// imageRef is empty or no attribute is left after normalization.
func (b *Builder) Build(userID, imageRef string, attributes map[string]string, preference string) (*model.ConsultationRequest, error) {
	userID = strings.TrimSpace(userID)
	imageRef = strings.TrimSpace(imageRef)
	preference = strings.TrimSpace(preference)

	if utf8.RuneCountInString(preference) > maxPreferenceLen {
		return nil, goerr.Wrap(model.ErrValidation, "preference text is too long",
			goerr.V(model.UserIDKey, userID),
			goerr.V("max", maxPreferenceLen))
	}

	normalized := make(map[string]string, len(attributes))
	for rawKey, rawValue := range attributes {
		key := types.AttributeKey(strings.ToLower(strings.TrimSpace(rawKey)))
		value := strings.TrimSpace(rawValue)
		if value == "" {
			continue
		}

		if err := key.Validate(); err != nil {
			return nil, goerr.Wrap(model.ErrValidation, "invalid attribute key",
				goerr.V(model.AttributeNameKey, rawKey),
				goerr.V("reason", err.Error()))
		}
		if len(b.allowed) > 0 {
			if _, ok := b.allowed[key]; !ok {
				return nil, goerr.Wrap(model.ErrValidation, "unknown attribute",
					goerr.V(model.AttributeNameKey, key))
			}
		}
		if utf8.RuneCountInString(value) > maxAttributeValueLen {
			return nil, goerr.Wrap(model.ErrValidation, "attribute value is too long",
				goerr.V(model.AttributeNameKey, key),
				goerr.V("max", maxAttributeValueLen))
		}
		if _, dup := normalized[key.String()]; dup {
			return nil, goerr.Wrap(model.ErrValidation, "duplicate attribute after normalization",
				goerr.V(model.AttributeNameKey, key))
		}

		normalized[key.String()] = value
	}

	req, err := model.NewConsultationRequest(userID, imageRef, normalized, preference, b.now())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build consultation request")
	}
	return req, nil
}
