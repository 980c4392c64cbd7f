package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

var attributeKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,63}$`)

// AttributeKey names a hair or face feature, e.g. "hair_length" or "face_shape"
type AttributeKey string

// Attribute keys collected by the hair profile form
const (
	AttrHairStyle    AttributeKey = "hair_style"
	AttrHairQuality  AttributeKey = "hair_quality"
	AttrHairLength   AttributeKey = "hair_length"
	AttrHairColor    AttributeKey = "hair_color"
	AttrHairTexture  AttributeKey = "hair_texture"
	AttrHairConcerns AttributeKey = "hair_concerns"
	AttrFaceShape    AttributeKey = "face_shape"
)

// Validate checks if the AttributeKey is valid
func (k AttributeKey) Validate() error {
	if k == "" {
		return goerr.New("attribute key cannot be empty")
	}
	if !attributeKeyPattern.MatchString(string(k)) {
		return goerr.New("attribute key must be lowercase alphanumeric with underscores or hyphens", goerr.V("key", k))
	}
	return nil
}

func (k AttributeKey) String() string {
	return string(k)
}
