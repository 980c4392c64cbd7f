package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hairlab/stylist/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// HairProfile is the hair information a user keeps on file. Its attributes are merged into
// consultation requests when the user asks for it.
type HairProfile struct {
	UserID       string
	FullName     string
	Email        string `masq:"secret"`
	Phone        string `masq:"secret"`
	HairStyle    string
	HairQuality  string
	HairLength   string
	HairColor    string
	HairTexture  string
	HairConcerns string
	UpdatedAt    time.Time
}

// Validate applies the same rules as the profile form
func (p *HairProfile) Validate() error {
	if p.UserID == "" {
		return goerr.Wrap(ErrValidation, "user ID is required")
	}

	style := strings.TrimSpace(p.HairStyle)
	if style == "" {
		return goerr.Wrap(ErrValidation, "hair style is required", goerr.V(AttributeNameKey, types.AttrHairStyle))
	}
	if utf8.RuneCountInString(style) < 2 {
		return goerr.Wrap(ErrValidation, "hair style must be at least 2 characters", goerr.V(AttributeNameKey, types.AttrHairStyle))
	}

	required := []struct {
		key   types.AttributeKey
		value string
	}{
		{types.AttrHairQuality, p.HairQuality},
		{types.AttrHairLength, p.HairLength},
		{types.AttrHairColor, p.HairColor},
		{types.AttrHairTexture, p.HairTexture},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return goerr.Wrap(ErrValidation, "required hair attribute is missing", goerr.V(AttributeNameKey, r.key))
		}
	}

	if concerns := strings.TrimSpace(p.HairConcerns); concerns != "" && utf8.RuneCountInString(concerns) < 3 {
		return goerr.Wrap(ErrValidation, "hair concerns must be at least 3 characters when provided", goerr.V(AttributeNameKey, types.AttrHairConcerns))
	}

	return nil
}

// Attributes returns the non-empty hair fields keyed by attribute name
func (p *HairProfile) Attributes() map[string]string {
	attrs := make(map[string]string)
	set := func(k types.AttributeKey, v string) {
		if v = strings.TrimSpace(v); v != "" {
			attrs[k.String()] = v
		}
	}
	set(types.AttrHairStyle, p.HairStyle)
	set(types.AttrHairQuality, p.HairQuality)
	set(types.AttrHairLength, p.HairLength)
	set(types.AttrHairColor, p.HairColor)
	set(types.AttrHairTexture, p.HairTexture)
	set(types.AttrHairConcerns, p.HairConcerns)
	return attrs
}
