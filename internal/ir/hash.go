package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests. The version suffix allows the
// algorithm to change without colliding with stored digests.
const (
	DomainTrace    = "tempo/trace/v1"
	DomainTimeline = "tempo/timeline/v1"
)

// hashWithDomain returns hex(SHA256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TraceDigest identifies a trace by content. Two runs that dispatched the
// same events at the same ticks have the same digest.
func TraceDigest(events []TraceEvent) (string, error) {
	canonical, err := MarshalTrace(events)
	if err != nil {
		return "", fmt.Errorf("trace digest: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// TimelineDigest identifies a timeline description by content.
func TimelineDigest(spec *TimelineSpec) (string, error) {
	canonical, err := MarshalCanonical(spec.ToValue())
	if err != nil {
		return "", fmt.Errorf("timeline digest: %w", err)
	}
	return hashWithDomain(DomainTimeline, canonical), nil
}
