package domain

import (
	"fmt"
	"strings"
)

// Condition is the refurbished grade of a listing.
type Condition string

const (
	ConditionExcellent Condition = "Excellent"
	ConditionGood      Condition = "Good"
	ConditionFair      Condition = "Fair"
)

// Conditions lists every grade, best first.
func Conditions() []Condition {
	return []Condition{ConditionExcellent, ConditionGood, ConditionFair}
}

// ParseCondition accepts a grade name in any case.
func ParseCondition(s string) (Condition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "excellent":
		return ConditionExcellent, nil
	case "good":
		return ConditionGood, nil
	case "fair":
		return ConditionFair, nil
	}
	return "", fmt.Errorf("unknown condition %q", s)
}

// Valid reports whether c is one of the three grades.
func (c Condition) Valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair:
		return true
	}
	return false
}

func (c Condition) String() string {
	return string(c)
}
