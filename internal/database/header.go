// Package database projects exported CSV databases into one note per row
// plus an index note holding generated query blocks.
package database

import (
	"regexp"
	"strings"
)

// PropertyKind is the closed set of column kinds a declared type maps to.
type PropertyKind int

const (
	KindText PropertyKind = iota
	KindNumber
	KindSelect
	KindMultiValue
	KindDate
	KindBoolean
	KindRelation
	KindComputed
	KindPerson
	KindFileRef
	KindTimestampMeta
)

var kindNames = [...]string{
	KindText:          "text",
	KindNumber:        "number",
	KindSelect:        "select",
	KindMultiValue:    "multi-value",
	KindDate:          "date",
	KindBoolean:       "boolean",
	KindRelation:      "relation",
	KindComputed:      "computed",
	KindPerson:        "person",
	KindFileRef:       "file-ref",
	KindTimestampMeta: "timestamp-meta",
}

func (k PropertyKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Header describes one column.
type Header struct {
	Original string `json:"original"`
	Name     string `json:"name"`
	Key      string `json:"key"`
	Type     string `json:"type"`
}

var (
	headerRe    = regexp.MustCompile(`^(.+?)\s*(?:\((.+?)\))?$`)
	nonWordRe   = regexp.MustCompile(`[^\w\s-]`)
	separatorRe = regexp.MustCompile(`[-\s]+`)
)

// ParseHeader splits a "Name (Type)" label. The type defaults to "text".
func ParseHeader(label string) Header {
	h := Header{Original: label, Name: strings.TrimSpace(label), Type: "text"}
	if m := headerRe.FindStringSubmatch(label); m != nil {
		h.Name = strings.TrimSpace(m[1])
		if m[2] != "" {
			h.Type = strings.ToLower(m[2])
		}
	}
	h.Key = NormalizeKey(h.Name)
	return h
}

// NormalizeKey lowercases name, strips non-word characters and collapses
// whitespace and hyphen runs to a single underscore.
func NormalizeKey(name string) string {
	key := strings.ToLower(name)
	key = nonWordRe.ReplaceAllString(key, "")
	return separatorRe.ReplaceAllString(key, "_")
}

// Kind maps the declared type onto the closed kind set.
func (h Header) Kind() PropertyKind {
	switch h.Type {
	case "checkbox":
		return KindBoolean
	case "multi_select", "multi-select":
		return KindMultiValue
	case "number":
		return KindNumber
	case "date":
		return KindDate
	case "created_time", "last_edited_time":
		return KindTimestampMeta
	case "select", "status":
		return KindSelect
	case "relation":
		return KindRelation
	case "formula", "rollup":
		return KindComputed
	case "person", "created_by", "last_edited_by":
		return KindPerson
	case "files":
		return KindFileRef
	}
	if strings.Contains(h.Type, "time") {
		return KindTimestampMeta
	}
	return KindText
}

// IsDateLike reports whether values of this column are normalized as dates.
func (h Header) IsDateLike() bool {
	return h.Type == "date" || strings.Contains(h.Type, "time")
}

// IsIdentity reports whether the column names the row itself.
func (h Header) IsIdentity() bool {
	return h.Key == "name" || h.Key == "title"
}
