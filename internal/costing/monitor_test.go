package costing

import (
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMonitorRecordAndTotals(t *testing.T) {
	m := NewMonitor(MonitorConfig{})
	m.Record(12.5, 0.30)
	m.Record(7.5, 0.18)

	minutes, spend, _ := m.Totals()
	if minutes != 20 {
		t.Fatalf("minutes = %v, want 20", minutes)
	}
	if !almostEqual(spend, 0.48) {
		t.Fatalf("spend = %v, want 0.48", spend)
	}
}

func TestMonitorMonthRollover(t *testing.T) {
	m := NewMonitor(MonitorConfig{})
	jan := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	m.Now = fixedClock(jan)
	m.Reset(MonthKey(jan))
	m.Record(100, 2.40)

	m.Now = fixedClock(jan.AddDate(0, 1, 0))
	minutes, spend, key := m.Totals()
	if minutes != 0 || spend != 0 {
		t.Fatalf("accumulators survived rollover: %v min, $%v", minutes, spend)
	}
	if key != "2026-02" {
		t.Fatalf("month key = %q, want 2026-02", key)
	}
}

func TestMonitorReset(t *testing.T) {
	m := NewMonitor(MonitorConfig{})
	m.Record(50, 1.00)
	m.Reset(MonthKey(time.Now()))
	if minutes := m.MonthlyUsageMinutes(); minutes != 0 {
		t.Fatalf("minutes after reset = %v", minutes)
	}
}

func TestMonitorCheckLimits(t *testing.T) {
	m := NewMonitor(MonitorConfig{MonthlyCapUSD: 10, AlertThresholdPct: 0.8})

	m.Record(10, 5)
	if st := m.CheckLimits(); len(st.Warnings) != 0 || st.CapExceeded {
		t.Fatalf("unexpected warnings at half cap: %+v", st)
	}

	m.Record(10, 3.5) // spend 8.5, past the 80% threshold
	st := m.CheckLimits()
	if len(st.Warnings) != 1 || st.CapExceeded {
		t.Fatalf("want one threshold warning, got %+v", st)
	}

	m.Record(10, 2) // spend 10.5, past the cap
	st = m.CheckLimits()
	if !st.CapExceeded {
		t.Fatalf("cap not flagged: %+v", st)
	}
	if len(st.Warnings) != 2 {
		t.Fatalf("want threshold + cap warnings, got %v", st.Warnings)
	}
}

func TestMonitorNoCapMeansNoWarnings(t *testing.T) {
	m := NewMonitor(MonitorConfig{})
	m.Record(100000, 9999)
	st := m.CheckLimits()
	if len(st.Warnings) != 0 || st.CapExceeded {
		t.Fatalf("warnings without a cap: %+v", st)
	}
}

func TestMonitorRecommendDowngrades(t *testing.T) {
	m := NewMonitor(MonitorConfig{MonthlyCapUSD: 10})

	if got := m.RecommendDowngrades(TierPremium); got != nil {
		t.Fatalf("downgrades below half cap: %v", got)
	}

	m.Record(10, 6) // past half the cap
	got := m.RecommendDowngrades(TierPremium)
	if len(got) != 4 {
		t.Fatalf("premium should yield 4 suggestions, got %v", got)
	}

	// budget already has nothing left to turn off
	if got := m.RecommendDowngrades(TierBudget); len(got) != 0 {
		t.Fatalf("budget downgrades = %v, want none", got)
	}
}
