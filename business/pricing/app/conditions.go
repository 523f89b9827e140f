package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
)

type keyword struct {
	text      string
	condition domain.Condition
}

// sharedConditions is the marketplace-independent keyword table.
var sharedConditions = newKeywordTable(map[string]domain.Condition{
	"excellent":  domain.ConditionExcellent,
	"mint":       domain.ConditionExcellent,
	"like new":   domain.ConditionExcellent,
	"pristine":   domain.ConditionExcellent,
	"very good":  domain.ConditionGood,
	"good":       domain.ConditionGood,
	"fine":       domain.ConditionGood,
	"fair":       domain.ConditionFair,
	"acceptable": domain.ConditionFair,
	"worn":       domain.ConditionFair,
	"correct":    domain.ConditionFair,
})

// newKeywordTable orders keywords longest first, then alphabetically.
func newKeywordTable(m map[string]domain.Condition) []keyword {
	out := make([]keyword, 0, len(m))
	for k, c := range m {
		out = append(out, keyword{text: strings.ToLower(strings.TrimSpace(k)), condition: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].text) != len(out[j].text) {
			return len(out[i].text) > len(out[j].text)
		}
		return out[i].text < out[j].text
	})
	return out
}

// ConditionTable maps one platform's condition vocabulary onto the grades.
type ConditionTable struct {
	keywords []keyword
	fallback domain.Condition
}

// NewConditionTable validates a platform's mapping. Values and the default
// must name a grade; an empty default means unmatched text is dropped.
func NewConditionTable(mapping map[string]string, defaultCondition string) (ConditionTable, error) {
	parsed := make(map[string]domain.Condition, len(mapping))
	for text, grade := range mapping {
		c, err := domain.ParseCondition(grade)
		if err != nil {
			return ConditionTable{}, apperror.New(apperror.CodeConfigurationError,
				apperror.WithCause(err), apperror.WithContext(fmt.Sprintf("condition %q", text)))
		}
		parsed[text] = c
	}

	t := ConditionTable{keywords: newKeywordTable(parsed)}
	if defaultCondition != "" {
		c, err := domain.ParseCondition(defaultCondition)
		if err != nil {
			return ConditionTable{}, apperror.New(apperror.CodeConfigurationError,
				apperror.WithCause(err), apperror.WithContext("default_condition"))
		}
		t.fallback = c
	}
	return t, nil
}

// Resolve maps free text to a grade: exact platform match, longest platform
// keyword contained in the text, the shared table, then the platform default.
func (t ConditionTable) Resolve(text string) (domain.Condition, error) {
	norm := strings.ToLower(strings.TrimSpace(text))

	if norm != "" {
		for _, kw := range t.keywords {
			if kw.text == norm {
				return kw.condition, nil
			}
		}
		if c, ok := longestContained(t.keywords, norm); ok {
			return c, nil
		}
		for _, kw := range sharedConditions {
			if kw.text == norm {
				return kw.condition, nil
			}
		}
		if c, ok := longestContained(sharedConditions, norm); ok {
			return c, nil
		}
	}

	if t.fallback != "" {
		return t.fallback, nil
	}
	return "", apperror.New(apperror.CodeUnmappedCondition, apperror.WithContext(text))
}

func longestContained(table []keyword, text string) (domain.Condition, bool) {
	for _, kw := range table {
		if kw.text != "" && strings.Contains(text, kw.text) {
			return kw.condition, true
		}
	}
	return "", false
}
