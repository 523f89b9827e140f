package app

import (
	"testing"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
)

func TestConditionTable_Resolve(t *testing.T) {
	backMarket, err := NewConditionTable(map[string]string{
		"Premium":   "Excellent",
		"very good": "Good",
		"correct":   "Fair",
		"stallone":  "Fair",
	}, "")
	if err != nil {
		t.Fatalf("NewConditionTable() error = %v", err)
	}
	withDefault, err := NewConditionTable(nil, "Good")
	if err != nil {
		t.Fatalf("NewConditionTable() error = %v", err)
	}

	tests := []struct {
		name    string
		table   ConditionTable
		text    string
		want    domain.Condition
		wantErr bool
	}{
		{name: "platform_exact_case_insensitive", table: backMarket, text: "PREMIUM", want: domain.ConditionExcellent},
		{name: "platform_keyword_contained", table: backMarket, text: "Stallone - light wear", want: domain.ConditionFair},
		{name: "longest_keyword_wins", table: backMarket, text: "Condition: very good", want: domain.ConditionGood},
		{name: "shared_table_exact", table: backMarket, text: "Mint", want: domain.ConditionExcellent},
		{name: "shared_like_new", table: backMarket, text: "Like New (open box)", want: domain.ConditionExcellent},
		{name: "shared_acceptable", table: backMarket, text: "acceptable", want: domain.ConditionFair},
		{name: "shared_very_good_not_good_keyword", table: ConditionTable{}, text: "Very Good", want: domain.ConditionGood},
		{name: "platform_default", table: withDefault, text: "heavily used", want: domain.ConditionGood},
		{name: "empty_uses_default", table: withDefault, text: "", want: domain.ConditionGood},
		{name: "unmapped_dropped", table: backMarket, text: "for parts", wantErr: true},
		{name: "empty_without_default", table: ConditionTable{}, text: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.table.Resolve(tt.text)
			if tt.wantErr {
				if !apperror.HasCode(err, apperror.CodeUnmappedCondition) {
					t.Errorf("Resolve(%q) error = %v, want unmapped condition", tt.text, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestNewConditionTable_InvalidGrade(t *testing.T) {
	if _, err := NewConditionTable(map[string]string{"A": "Superb"}, ""); !apperror.HasCode(err, apperror.CodeConfigurationError) {
		t.Errorf("error = %v, want configuration error", err)
	}
	if _, err := NewConditionTable(nil, "Okay"); !apperror.HasCode(err, apperror.CodeConfigurationError) {
		t.Errorf("error = %v, want configuration error", err)
	}
}
