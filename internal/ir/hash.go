package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainRecord = "namereg/record/v1"
	DomainState  = "namereg/state/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// MetadataObject converts metadata to a canonical JSON object.
// Nil fields are omitted; an empty keyword list is kept as [].
func MetadataObject(m NameMetadata) map[string]any {
	obj := map[string]any{}
	if m.Title != nil {
		obj["title"] = *m.Title
	}
	if m.Description != nil {
		obj["description"] = *m.Description
	}
	if m.Favicon != nil {
		obj["favicon"] = *m.Favicon
	}
	if m.Logo != nil {
		obj["logo"] = *m.Logo
	}
	if m.Keywords != nil {
		obj["keywords"] = append([]string{}, m.Keywords...)
	}
	return obj
}

// RecordObject converts a public record to a canonical JSON object.
// created_at is encoded as Unix nanoseconds.
func RecordObject(rec PublicNameRecord) map[string]any {
	return map[string]any{
		"canonical_name": rec.CanonicalName,
		"created_at":     rec.CreatedAt.UnixNano(),
		"metadata":       MetadataObject(rec.Metadata),
		"owner":          rec.Owner,
		"target_address": rec.TargetAddress,
	}
}

// RecordDigest computes a content digest of a public record.
func RecordDigest(rec PublicNameRecord) (string, error) {
	canonical, err := MarshalCanonical(RecordObject(rec))
	if err != nil {
		return "", fmt.Errorf("RecordDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// StateDigest computes a digest over an ordered list of records.
// Two registries holding byte-identical records produce the same digest.
func StateDigest(records []PublicNameRecord) (string, error) {
	digests := make([]any, len(records))
	for i, rec := range records {
		d, err := RecordDigest(rec)
		if err != nil {
			return "", fmt.Errorf("StateDigest: record %q: %w", rec.CanonicalName, err)
		}
		digests[i] = d
	}
	canonical, err := MarshalCanonical(digests)
	if err != nil {
		return "", fmt.Errorf("StateDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}
