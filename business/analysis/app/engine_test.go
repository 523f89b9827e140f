package app

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/domain"
	pricingDomain "github.com/prem-pandian/smartphone-price-tracker-v2/business/pricing/domain"
)

var (
	pixel  = pricingDomain.PhoneModel{Brand: "Google", Name: "Pixel 9", Storage: "128GB"}
	iphone = pricingDomain.PhoneModel{Brand: "Apple", Name: "iPhone 16", Storage: "128GB"}
	day0   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

type rec struct {
	platform  string
	region    string
	model     pricingDomain.PhoneModel
	condition pricingDomain.Condition
	price     string
	day       int
	sold      bool
}

func records(rs ...rec) []pricingDomain.PriceRecord {
	out := make([]pricingDomain.PriceRecord, len(rs))
	for i, r := range rs {
		cond := r.condition
		if cond == "" {
			cond = pricingDomain.ConditionExcellent
		}
		region := r.region
		if region == "" {
			region = "US"
		}
		out[i] = pricingDomain.PriceRecord{
			ID:         fmt.Sprintf("rec-%02d", i),
			Platform:   r.platform,
			Region:     region,
			Model:      r.model,
			Condition:  cond,
			Price:      decimal.RequireFromString(r.price),
			Currency:   "USD",
			Available:  !r.sold,
			ObservedAt: day0.AddDate(0, 0, r.day),
		}
	}
	return out
}

func thresholds() Thresholds {
	return Thresholds{
		PriceChangePct: decimal.NewFromInt(5),
		VolatilityPct:  decimal.NewFromInt(10),
		ArbitrageAbs:   decimal.NewFromInt(50),
		ArbitragePct:   decimal.Zero,
		TopN:           10,
	}
}

func TestEngine_Arbitrage(t *testing.T) {
	tests := []struct {
		name       string
		th         func(*Thresholds)
		recs       []pricingDomain.PriceRecord
		wantCount  int
		wantBuy    string
		wantSell   string
		wantSpread string
	}{
		{
			name: "sixty_dollar_spread",
			recs: records(
				rec{platform: "A", model: pixel, price: "400"},
				rec{platform: "B", model: pixel, price: "460"},
			),
			wantCount:  1,
			wantBuy:    "A",
			wantSell:   "B",
			wantSpread: "60",
		},
		{
			name: "below_absolute_threshold",
			recs: records(
				rec{platform: "A", model: pixel, price: "400"},
				rec{platform: "B", model: pixel, price: "440"},
			),
		},
		{
			name: "percentage_arm_only",
			th: func(th *Thresholds) {
				th.ArbitrageAbs = decimal.Zero
				th.ArbitragePct = decimal.NewFromInt(10)
			},
			recs: records(
				rec{platform: "A", model: pixel, price: "400"},
				rec{platform: "B", model: pixel, price: "440"},
			),
			wantCount:  1,
			wantBuy:    "A",
			wantSell:   "B",
			wantSpread: "40",
		},
		{
			name: "both_arms_disabled",
			th: func(th *Thresholds) {
				th.ArbitrageAbs = decimal.Zero
			},
			recs: records(
				rec{platform: "A", model: pixel, price: "400"},
				rec{platform: "B", model: pixel, price: "900"},
			),
		},
		{
			name: "latest_record_per_platform",
			recs: records(
				rec{platform: "A", model: pixel, price: "300", day: 0},
				rec{platform: "A", model: pixel, price: "420", day: 1},
				rec{platform: "B", model: pixel, price: "460", day: 1},
			),
		},
		{
			name: "unavailable_offer_ignored",
			recs: records(
				rec{platform: "A", model: pixel, price: "400", day: 0},
				rec{platform: "A", model: pixel, price: "350", day: 1, sold: true},
				rec{platform: "B", model: pixel, price: "460", day: 1},
			),
			wantCount:  1,
			wantBuy:    "A",
			wantSell:   "B",
			wantSpread: "60",
		},
		{
			name: "same_platform_other_region",
			recs: records(
				rec{platform: "A", region: "US", model: pixel, price: "400"},
				rec{platform: "A", region: "Europe", model: pixel, price: "470"},
			),
			wantCount:  1,
			wantBuy:    "A",
			wantSell:   "A",
			wantSpread: "70",
		},
		{
			name: "tie_goes_to_most_recent_then_platform",
			recs: records(
				rec{platform: "C", model: pixel, price: "400", day: 0},
				rec{platform: "B", model: pixel, price: "400", day: 1},
				rec{platform: "A", model: pixel, price: "400", day: 1},
				rec{platform: "D", model: pixel, price: "500", day: 0},
			),
			wantCount:  1,
			wantBuy:    "A",
			wantSell:   "D",
			wantSpread: "100",
		},
		{
			name: "conditions_never_mix",
			recs: records(
				rec{platform: "A", model: pixel, condition: pricingDomain.ConditionFair, price: "300"},
				rec{platform: "B", model: pixel, condition: pricingDomain.ConditionExcellent, price: "460"},
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := thresholds()
			if tt.th != nil {
				tt.th(&th)
			}
			b := NewEngine(th).Analyze(tt.recs, domain.Options{Now: day0.AddDate(0, 0, 2)})

			if len(b.ArbitrageOpportunities) != tt.wantCount {
				t.Fatalf("opportunities = %d, want %d", len(b.ArbitrageOpportunities), tt.wantCount)
			}
			if tt.wantCount == 0 {
				return
			}
			opp := b.ArbitrageOpportunities[0]
			if opp.Buy.Platform != tt.wantBuy || opp.Sell.Platform != tt.wantSell {
				t.Errorf("buy/sell = %s/%s, want %s/%s", opp.Buy.Platform, opp.Sell.Platform, tt.wantBuy, tt.wantSell)
			}
			if !opp.Spread.Absolute.Equal(decimal.RequireFromString(tt.wantSpread)) {
				t.Errorf("spread = %s, want %s", opp.Spread.Absolute, tt.wantSpread)
			}
			if opp.Buy.RecordID == "" || opp.Sell.RecordID == "" {
				t.Error("opportunity must reference records by ID")
			}
		})
	}
}

func TestEngine_Trend(t *testing.T) {
	tests := []struct {
		name      string
		mode      domain.Mode
		prices    []string
		wantPct   string
		wantDir   domain.Direction
		wantConf  float64
		wantDelta bool
	}{
		{name: "five_percent_drop", prices: []string{"500", "475"}, wantPct: "-5.00", wantDir: domain.DirectionStable, wantConf: 0.3, wantDelta: true},
		{name: "two_percent_drop", prices: []string{"500", "490"}},
		{name: "single_point", prices: []string{"500"}},
		{name: "rising_series", prices: []string{"400", "420", "440", "480"}, wantPct: "9.09", wantDir: domain.DirectionUp, wantDelta: true},
		{name: "latest_ignores_older_move", prices: []string{"600", "500", "495"}},
		{name: "window_compares_first_and_last", mode: domain.ModeWindow, prices: []string{"600", "500", "495"}, wantPct: "-17.50", wantDir: domain.DirectionDown, wantDelta: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rs []rec
			for i, p := range tt.prices {
				rs = append(rs, rec{platform: "Swappa", model: pixel, price: p, day: i})
			}
			b := NewEngine(thresholds()).Analyze(records(rs...), domain.Options{Now: day0.AddDate(0, 0, 10), Mode: tt.mode})

			if !tt.wantDelta {
				if len(b.TrendDeltas) != 0 {
					t.Errorf("trend deltas = %+v, want none", b.TrendDeltas)
				}
				return
			}
			if len(b.TrendDeltas) != 1 {
				t.Fatalf("trend deltas = %d, want 1", len(b.TrendDeltas))
			}
			d := b.TrendDeltas[0]
			if !d.ChangePct.Equal(decimal.RequireFromString(tt.wantPct)) || d.ChangePct.StringFixed(2) != tt.wantPct {
				t.Errorf("change = %s, want %s", d.ChangePct.StringFixed(2), tt.wantPct)
			}
			if d.Direction != tt.wantDir {
				t.Errorf("direction = %s, want %s", d.Direction, tt.wantDir)
			}
			if tt.wantConf != 0 && d.Confidence != tt.wantConf {
				t.Errorf("confidence = %v, want %v", d.Confidence, tt.wantConf)
			}
			if d.Confidence < 0.1 || d.Confidence > 1 {
				t.Errorf("confidence %v out of range", d.Confidence)
			}
			if d.Points != len(tt.prices) {
				t.Errorf("points = %d, want %d", d.Points, len(tt.prices))
			}
		})
	}
}

func TestEngine_Volatility(t *testing.T) {
	recs := records(
		rec{platform: "Swappa", model: pixel, price: "400", day: 0},
		rec{platform: "Swappa", model: pixel, price: "500", day: 1},
		rec{platform: "Swappa", model: pixel, price: "600", day: 2},
		rec{platform: "Gazelle", model: pixel, price: "500", day: 0},
		rec{platform: "Gazelle", model: pixel, price: "505", day: 1},
		rec{platform: "Mercari", model: pixel, price: "450", day: 0},
	)

	b := NewEngine(thresholds()).Analyze(recs, domain.Options{Now: day0.AddDate(0, 0, 3)})
	if len(b.VolatilityReports) != 2 {
		t.Fatalf("reports = %d, want 2", len(b.VolatilityReports))
	}

	// Swappa: mean 500, sample sd 100, CV 20%.
	swappa := b.VolatilityReports[0]
	if swappa.Platform != "Swappa" {
		t.Fatalf("first report = %s, want the most volatile series first", swappa.Platform)
	}
	if !swappa.Mean.Equal(decimal.NewFromInt(500)) || !swappa.StdDev.Equal(decimal.NewFromInt(100)) || !swappa.CVPct.Equal(decimal.NewFromInt(20)) {
		t.Errorf("swappa = mean %s sd %s cv %s", swappa.Mean, swappa.StdDev, swappa.CVPct)
	}
	if !swappa.Unstable || swappa.Count != 3 || !swappa.Min.Equal(decimal.NewFromInt(400)) || !swappa.Max.Equal(decimal.NewFromInt(600)) {
		t.Errorf("swappa = %+v", swappa)
	}

	gazelle := b.VolatilityReports[1]
	if gazelle.Unstable {
		t.Errorf("gazelle cv %s should be stable", gazelle.CVPct)
	}
}

func TestEngine_BestDeals(t *testing.T) {
	recs := records(
		rec{platform: "Swappa", model: pixel, price: "420", day: 0},
		rec{platform: "Swappa", model: pixel, price: "380", day: 1},
		rec{platform: "Gazelle", model: pixel, price: "400", day: 1},
		rec{platform: "Mercari", model: pixel, price: "350", day: 1, sold: true},
		rec{platform: "Swappa", model: iphone, price: "700", day: 1},
		rec{platform: "Gazelle", model: iphone, price: "690", day: 1},
		rec{platform: "Gazelle", model: iphone, condition: pricingDomain.ConditionGood, price: "600", day: 1},
	)

	th := thresholds()
	th.TopN = 2
	b := NewEngine(th).Analyze(recs, domain.Options{Now: day0.AddDate(0, 0, 2)})

	if len(b.BestDeals) != 2 {
		t.Fatalf("best deals = %d, want 2 (capped)", len(b.BestDeals))
	}

	// Pixel mean is (420+380+400+350)/4 = 387.50; the sold 350 only counts
	// toward the mean.
	top := b.BestDeals[0]
	if top.Model != pixel || top.Offer.Platform != "Swappa" || !top.Offer.Price.Equal(decimal.NewFromInt(380)) {
		t.Errorf("top deal = %+v", top)
	}
	if !top.Mean.Equal(decimal.RequireFromString("387.5")) || !top.Savings.Equal(decimal.RequireFromString("7.5")) || !top.SavingsPct.Equal(decimal.RequireFromString("1.94")) {
		t.Errorf("top deal savings = mean %s, savings %s (%s%%)", top.Mean, top.Savings, top.SavingsPct)
	}

	second := b.BestDeals[1]
	if second.Model != iphone || second.Offer.Platform != "Gazelle" || second.Condition != pricingDomain.ConditionExcellent {
		t.Errorf("second deal = %+v", second)
	}
}

func TestEngine_Summary(t *testing.T) {
	recs := records(
		rec{platform: "Swappa", model: pixel, price: "400", day: 0},
		rec{platform: "Swappa", model: pixel, price: "420", day: 9},
		rec{platform: "Gazelle", model: pixel, price: "410", day: 9},
		rec{platform: "Gazelle", model: iphone, price: "700", day: 9},
	)

	s := NewEngine(thresholds()).Analyze(recs, domain.Options{Now: day0.AddDate(0, 0, 10)}).Summary
	if s.TotalRecords != 4 || s.RecentRecords != 3 || s.Models != 2 || s.Platforms != 2 {
		t.Errorf("summary counts = %+v", s)
	}
	if !s.AvgPriceByBrand["Google"].Equal(decimal.NewFromInt(410)) || !s.AvgPriceByBrand["Apple"].Equal(decimal.NewFromInt(700)) {
		t.Errorf("avg by brand = %v", s.AvgPriceByBrand)
	}
	if len(s.TopModels) != 2 || s.TopModels[0] != (domain.ModelCount{Model: "Google Pixel 9", Records: 3}) {
		t.Errorf("top models = %+v", s.TopModels)
	}
	if s.PlatformRecords["Swappa"] != 2 || s.PlatformRecords["Gazelle"] != 2 {
		t.Errorf("platform records = %v", s.PlatformRecords)
	}
}

func TestEngine_WindowFilter(t *testing.T) {
	recs := records(
		rec{platform: "Swappa", model: pixel, price: "500", day: 0},
		rec{platform: "Swappa", model: pixel, price: "400", day: 20},
		rec{platform: "Swappa", model: pixel, price: "398", day: 21},
	)

	b := NewEngine(thresholds()).Analyze(recs, domain.Options{
		Now:        day0.AddDate(0, 0, 22),
		WindowDays: 7,
		Mode:       domain.ModeWindow,
	})
	if b.Summary.TotalRecords != 2 {
		t.Errorf("records in window = %d, want 2", b.Summary.TotalRecords)
	}
	if len(b.TrendDeltas) != 0 {
		t.Errorf("the day 0 record is outside the window; got %+v", b.TrendDeltas)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	var rs []rec
	platforms := []string{"Swappa", "Gazelle", "Back Market", "Mercari"}
	for d := 0; d < 6; d++ {
		for i, p := range platforms {
			price := fmt.Sprintf("%d.%02d", 380+d*7+i*23, (d*13+i*7)%100)
			rs = append(rs, rec{platform: p, model: pixel, price: price, day: d})
			rs = append(rs, rec{platform: p, model: iphone, condition: pricingDomain.ConditionGood, price: price, day: d, sold: d%3 == i%3})
		}
	}
	recs := records(rs...)

	reversed := make([]pricingDomain.PriceRecord, len(recs))
	for i, r := range recs {
		reversed[len(recs)-1-i] = r
	}

	engine := NewEngine(thresholds())
	opts := domain.Options{Now: day0.AddDate(0, 0, 7), WindowDays: 30}

	first, err := json.Marshal(engine.Analyze(recs, opts))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(engine.Analyze(reversed, opts))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("analysis output differs between runs:\n%s\n%s", first, second)
	}
}

func TestEngine_Empty(t *testing.T) {
	b := NewEngine(thresholds()).Analyze(nil, domain.Options{Now: day0})
	if b.Count() != 0 || b.Summary.TotalRecords != 0 {
		t.Errorf("bundle = %+v", b)
	}
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back["trend_deltas"] == nil || back["best_deals"] == nil {
		t.Errorf("empty lists should encode as [], got %s", raw)
	}
}
