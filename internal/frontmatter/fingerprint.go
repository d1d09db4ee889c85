package frontmatter

import (
	"errors"
	"strings"
	"time"

	"github.com/inful/mdfp"
)

// FieldFingerprint is the frontmatter key holding the content fingerprint.
var FieldFingerprint = mdfp.FingerprintField

// FieldLastmod is refreshed whenever the fingerprint changes.
const FieldLastmod = "lastmod"

// ComputeFingerprint computes the canonical content fingerprint for a document.
//
// The fingerprint and lastmod fields are excluded from the hash; the remaining
// fields are serialized with LF newlines and a single trailing newline trimmed.
func ComputeFingerprint(fields map[string]any, body []byte) (string, error) {
	if fields == nil {
		return "", errors.New("fields map is nil")
	}

	hashed := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == FieldFingerprint || k == FieldLastmod {
			continue
		}
		hashed[k] = v
	}

	fm := ""
	if len(hashed) > 0 {
		serialized, err := SerializeYAML(hashed, "\n")
		if err != nil {
			return "", err
		}
		fm = strings.TrimSuffix(string(serialized), "\n")
	}

	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}

// Upsert stores the fingerprint for the document's current fields and body.
// If the fingerprint differs from previous, lastmod is set to now (UTC,
// YYYY-MM-DD); otherwise the previous lastmod is carried over.
func (d *Document) Upsert(previous *Document, now time.Time) (string, error) {
	fp, err := ComputeFingerprint(d.Fields, d.Body)
	if err != nil {
		return "", err
	}
	d.Fields[FieldFingerprint] = fp

	if previous != nil && previous.Fingerprint() == fp {
		if lm, ok := previous.Fields[FieldLastmod]; ok {
			d.Fields[FieldLastmod] = lm
			return fp, nil
		}
	}
	d.Fields[FieldLastmod] = now.UTC().Format("2006-01-02")
	return fp, nil
}

// Fingerprint returns the stored fingerprint, or "" when absent.
func (d *Document) Fingerprint() string {
	if d == nil {
		return ""
	}
	s, _ := d.Fields[FieldFingerprint].(string)
	return strings.TrimSpace(s)
}

// Verify reports whether the stored fingerprint matches the document content.
// A document without a fingerprint never verifies.
func (d *Document) Verify() (bool, error) {
	stored := d.Fingerprint()
	if stored == "" {
		return false, nil
	}
	fp, err := ComputeFingerprint(d.Fields, d.Body)
	if err != nil {
		return false, err
	}
	return fp == stored, nil
}
