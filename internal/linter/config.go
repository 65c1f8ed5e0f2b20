package linter

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config toggles individual normalization passes. Line endings are always
// standardized.
type Config struct {
	StandardizeFrontmatter bool `yaml:"standardize_frontmatter" json:"standardize_frontmatter"`
	SpaceAfterHeading      bool `yaml:"space_after_heading" json:"space_after_heading"`
	SpaceAfterListMarker   bool `yaml:"space_after_list_marker" json:"space_after_list_marker"`
	ConsistentListStyle    bool `yaml:"consistent_list_style" json:"consistent_list_style"`
	EnsureListSpacing      bool `yaml:"ensure_list_spacing" json:"ensure_list_spacing"`
	FixTableFormatting     bool `yaml:"fix_table_formatting" json:"fix_table_formatting"`
	FixLinkSpacing         bool `yaml:"fix_link_spacing" json:"fix_link_spacing"`
	FixEmphasis            bool `yaml:"fix_emphasis" json:"fix_emphasis"`
	RemoveMultipleSpaces   bool `yaml:"remove_multiple_spaces" json:"remove_multiple_spaces"`
	TrimTrailingWhitespace bool `yaml:"trim_trailing_whitespace" json:"trim_trailing_whitespace"`
	LimitBlankLines        bool `yaml:"limit_blank_lines" json:"limit_blank_lines"`
	MaxBlankLines          int  `yaml:"max_blank_lines" json:"max_blank_lines"`
	EnsureFinalNewline     bool `yaml:"ensure_final_newline" json:"ensure_final_newline"`
}

// DefaultMaxBlankLines is the default cap on consecutive blank lines.
const DefaultMaxBlankLines = 2

// DefaultConfig enables every pass.
func DefaultConfig() Config {
	return Config{
		StandardizeFrontmatter: true,
		SpaceAfterHeading:      true,
		SpaceAfterListMarker:   true,
		ConsistentListStyle:    true,
		EnsureListSpacing:      true,
		FixTableFormatting:     true,
		FixLinkSpacing:         true,
		FixEmphasis:            true,
		RemoveMultipleSpaces:   true,
		TrimTrailingWhitespace: true,
		LimitBlankLines:        true,
		MaxBlankLines:          DefaultMaxBlankLines,
		EnsureFinalNewline:     true,
	}
}

// Validate validates the linter configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxBlankLines,
			validation.When(c.LimitBlankLines, validation.Required, validation.Min(1)),
		),
	)
}
