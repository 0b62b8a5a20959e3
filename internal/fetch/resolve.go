// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// IdentifierType classifies an input identifier.
type IdentifierType int

const (
	TypeUnknown IdentifierType = iota
	TypeArxiv
	TypeURL
)

func (t IdentifierType) String() string {
	switch t {
	case TypeArxiv:
		return "arxiv"
	case TypeURL:
		return "url"
	default:
		return "unknown"
	}
}

// arxivPDFBase is declared as a var so tests can substitute an httptest
// server.
var arxivPDFBase = "https://arxiv.org/pdf/"

// arxivPattern matches arXiv IDs: "2301.07041", "arXiv:2301.07041",
// "2301.07041v2".
var arxivPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)

// Classify determines the identifier type and returns the normalized form.
// For arXiv, it strips the optional "arXiv:" prefix; http(s) URLs pass
// through as direct PDF downloads.
func Classify(identifier string) (IdentifierType, string) {
	identifier = strings.TrimSpace(identifier)

	if m := arxivPattern.FindStringSubmatch(identifier); m != nil {
		return TypeArxiv, m[1]
	}

	if u, err := url.Parse(identifier); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return TypeURL, identifier
	}

	return TypeUnknown, identifier
}

// Slug returns a filesystem-safe filename stem for the identifier. arXiv
// version suffixes are kept so different revisions land in different
// files; URLs use the path basename, falling back to a hash when the path
// carries no usable name.
func Slug(idType IdentifierType, normalized string) string {
	switch idType {
	case TypeArxiv:
		return normalized
	case TypeURL:
		u, err := url.Parse(normalized)
		if err != nil {
			return urlHashSlug(normalized)
		}
		base := strings.TrimSuffix(filepath.Base(u.Path), filepath.Ext(u.Path))
		if base == "" || base == "." || base == "/" {
			return urlHashSlug(normalized)
		}
		return base
	default:
		return "unknown"
	}
}

// PDFURL returns the download URL for the identifier. For arXiv, this is
// the arxiv.org PDF endpoint; direct URLs return as-is.
func PDFURL(idType IdentifierType, normalized string) string {
	switch idType {
	case TypeArxiv:
		return arxivPDFBase + normalized
	case TypeURL:
		return normalized
	default:
		return ""
	}
}

func urlHashSlug(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("url-%x", h[:8])
}
