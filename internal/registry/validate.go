package registry

import (
	"unicode/utf8"

	"github.com/roach88/namereg/internal/ir"
)

// MaxPageLimit is the largest page ListRecords will serve.
const MaxPageLimit = 30

// Limits bounds metadata fields. Lengths count Unicode code points.
type Limits struct {
	MaxTitle       int
	MaxDescription int
	MaxKeywords    int
	MaxKeywordLen  int
}

// DefaultLimits are the limits used unless WithLimits overrides them.
var DefaultLimits = Limits{
	MaxTitle:       100,
	MaxDescription: 500,
	MaxKeywords:    10,
	MaxKeywordLen:  50,
}

// Validate checks a patch against the limits. Only Set fields are checked;
// Unchanged and Clear always pass.
func (l Limits) Validate(p ir.MetadataPatch) error {
	if v, ok := p.Title.Value(); ok {
		if n := utf8.RuneCountInString(v); n > l.MaxTitle {
			return newError(KindValidation, "title must be at most %d characters (got %d)", l.MaxTitle, n)
		}
	}
	if v, ok := p.Description.Value(); ok {
		if n := utf8.RuneCountInString(v); n > l.MaxDescription {
			return newError(KindValidation, "description must be at most %d characters (got %d)", l.MaxDescription, n)
		}
	}
	if kw, ok := p.Keywords.Value(); ok {
		if len(kw) > l.MaxKeywords {
			return newError(KindValidation, "at most %d keywords are allowed (got %d)", l.MaxKeywords, len(kw))
		}
		for i, k := range kw {
			if n := utf8.RuneCountInString(k); n > l.MaxKeywordLen {
				return newError(KindValidation, "keyword %d must be at most %d characters (got %d)", i, l.MaxKeywordLen, n)
			}
		}
	}
	return nil
}

// validateName checks a canonical name against the configured maximum,
// measured in bytes.
func validateName(canonical string, maxLen int) error {
	if canonical == "" {
		return newError(KindValidation, "name must not be empty")
	}
	if len(canonical) > maxLen {
		return newError(KindValidation, "name %q is longer than %d bytes", canonical, maxLen)
	}
	return nil
}
