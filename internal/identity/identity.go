// Package identity derives stable, filesystem-safe names for exported
// documents by stripping the unique identifiers the export tool appends.
package identity

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxNameLength bounds document names.
	MaxNameLength = 200
	// Fallback replaces names that sanitize to nothing.
	Fallback = "untitled"
)

var (
	compactIDRe   = regexp.MustCompile(`(?i)\s+([0-9a-z]{32})$`)
	canonicalIDRe = regexp.MustCompile(`(?i)\s+([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
	hasDigitRe    = regexp.MustCompile(`[0-9]`)
	illegalRe     = regexp.MustCompile(`[<>:"/\\|?*]`)
	spaceRunRe    = regexp.MustCompile(`\s+`)
)

// ResolveName strips a trailing export identifier from raw and sanitizes
// the remainder. It is pure: the same input always yields the same name.
func ResolveName(raw string) string {
	return Sanitize(StripID(raw))
}

// StripID removes one trailing whitespace-separated identifier: either a
// 32-character compact run or a canonical 8-4-4-4-12 UUID. Compact runs
// must contain a digit so ordinary long words survive.
func StripID(raw string) string {
	if m := compactIDRe.FindStringSubmatchIndex(raw); m != nil {
		if hasDigitRe.MatchString(raw[m[2]:m[3]]) {
			return raw[:m[0]]
		}
	}
	if m := canonicalIDRe.FindStringSubmatchIndex(raw); m != nil {
		if _, err := uuid.Parse(raw[m[2]:m[3]]); err == nil {
			return raw[:m[0]]
		}
	}
	return raw
}

// Sanitize makes name safe for use as a file name, bounded at MaxNameLength.
func Sanitize(name string) string {
	return SanitizeN(name, MaxNameLength)
}

// SanitizeN replaces illegal characters with '-', collapses whitespace,
// trims spaces and dots, truncates to max runes and substitutes Fallback
// for an empty result.
func SanitizeN(name string, max int) string {
	name = illegalRe.ReplaceAllString(name, "-")
	name = spaceRunRe.ReplaceAllString(name, " ")
	name = strings.Trim(name, ". ")
	if max > 0 && utf8.RuneCountInString(name) > max {
		name = string([]rune(name)[:max])
		name = strings.Trim(name, ". ")
	}
	if name == "" {
		return Fallback
	}
	return name
}

// DestPath maps a slash-separated source-relative path to its
// destination-relative path: every directory segment and the file stem are
// resolved, the extension is kept.
func DestPath(rel string) string {
	dir, file := path.Split(rel)
	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	return DestDir(dir) + ResolveName(stem) + ext
}

// DestDir resolves every segment of a slash-separated directory path. The
// result keeps a trailing slash when dir has one.
func DestDir(dir string) string {
	if dir == "" || dir == "." {
		return ""
	}
	trailing := strings.HasSuffix(dir, "/")
	parts := strings.Split(strings.TrimSuffix(dir, "/"), "/")
	for i, p := range parts {
		if p != "." && p != ".." {
			parts[i] = ResolveName(p)
		}
	}
	out := strings.Join(parts, "/")
	if trailing {
		out += "/"
	}
	return out
}

// Stem returns the resolved stem of a document path.
func Stem(rel string) string {
	file := path.Base(rel)
	return ResolveName(strings.TrimSuffix(file, path.Ext(file)))
}
