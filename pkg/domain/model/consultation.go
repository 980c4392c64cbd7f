package model

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"maps"
	"slices"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Fingerprint identifies a unique consultation request. It is the hex encoded SHA-256 of the
// request fields except the timestamp.
type Fingerprint string

func (f Fingerprint) String() string {
	return string(f)
}

// ConsultationRequest is an immutable consultation payload. Construct it with NewConsultationRequest.
type ConsultationRequest struct {
	userID      string
	imageRef    string
	attributes  map[string]string
	preference  string
	timestamp   time.Time
	fingerprint Fingerprint
}

// NewConsultationRequest validates the fields and returns a request with its fingerprint computed.
// attributes is copied; later changes to the caller's map do not affect the request.
func NewConsultationRequest(userID, imageRef string, attributes map[string]string, preference string, timestamp time.Time) (*ConsultationRequest, error) {
	if userID == "" {
		return nil, goerr.Wrap(ErrValidation, "user ID is required")
	}
	if imageRef == "" {
		return nil, goerr.Wrap(ErrValidation, "image reference is required", goerr.V(UserIDKey, userID))
	}
	if len(attributes) == 0 {
		return nil, goerr.Wrap(ErrValidation, "at least one attribute is required", goerr.V(UserIDKey, userID))
	}

	req := &ConsultationRequest{
		userID:     userID,
		imageRef:   imageRef,
		attributes: maps.Clone(attributes),
		preference: preference,
		timestamp:  timestamp,
	}
	req.fingerprint = ComputeFingerprint(userID, imageRef, attributes, preference)
	return req, nil
}

func (r *ConsultationRequest) UserID() string           { return r.userID }
func (r *ConsultationRequest) ImageRef() string         { return r.imageRef }
func (r *ConsultationRequest) Preference() string       { return r.preference }
func (r *ConsultationRequest) Timestamp() time.Time     { return r.timestamp }
func (r *ConsultationRequest) Fingerprint() Fingerprint { return r.fingerprint }

// Attributes returns a copy of the attribute map
func (r *ConsultationRequest) Attributes() map[string]string {
	return maps.Clone(r.attributes)
}

// AttributeKeys returns attribute keys in sorted order
func (r *ConsultationRequest) AttributeKeys() []string {
	return slices.Sorted(maps.Keys(r.attributes))
}

// ComputeFingerprint hashes the request fields in a canonical order. Every field is length
// prefixed so that ("ab", "c") and ("a", "bc") never collide.
func ComputeFingerprint(userID, imageRef string, attributes map[string]string, preference string) Fingerprint {
	h := sha256.New()
	writeLen := func(n int) {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(n))
		h.Write(buf[:])
	}
	writeField := func(s string) {
		writeLen(len(s))
		h.Write([]byte(s))
	}

	writeField("v1")
	writeField(userID)
	writeField(imageRef)
	writeField(preference)

	keys := slices.Sorted(maps.Keys(attributes))
	writeLen(len(keys))
	for _, k := range keys {
		writeField(k)
		writeField(attributes[k])
	}

	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}
