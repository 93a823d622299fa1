package costing

import (
	"fmt"
	"sync"
	"time"
)

type MonitorConfig struct {
	MonthlyCapUSD     float64 // 0 disables cap checks
	AlertThresholdPct float64 // ex: 0.8 warns at 80% of the cap
}

// Monitor keeps process-wide running totals of recognition usage and spend for
// the current billing month. It is constructed and injected, never a package
// singleton, so tests can hold isolated instances and drive the clock.
type Monitor struct {
	cfg MonitorConfig

	// Now is the clock used for month rollover; tests may replace it.
	Now func() time.Time

	mu       sync.Mutex
	monthKey string
	minutes  float64
	spend    float64
}

func NewMonitor(cfg MonitorConfig) *Monitor {
	if cfg.AlertThresholdPct <= 0 || cfg.AlertThresholdPct > 1 {
		cfg.AlertThresholdPct = 0.8
	}
	m := &Monitor{cfg: cfg, Now: time.Now}
	m.monthKey = m.Now().UTC().Format("2006-01")
	return m
}

// MonthKey formats t into the accumulator key, ex: "2026-08".
func MonthKey(t time.Time) string { return t.UTC().Format("2006-01") }

// rolloverLocked resets the accumulators when the wall-clock month changed.
// Checked lazily on every call; there is no timer.
func (m *Monitor) rolloverLocked() {
	key := MonthKey(m.Now())
	if key != m.monthKey {
		m.monthKey = key
		m.minutes = 0
		m.spend = 0
	}
}

// Record adds one run's billed minutes and cost to the month's totals.
func (m *Monitor) Record(minutes, cost float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolloverLocked()
	m.minutes += minutes
	m.spend += cost
}

// Reset drops the accumulators and pins the month key. Used at boot to re-seed
// from the persisted usage ledger and by tests.
func (m *Monitor) Reset(monthKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.monthKey = monthKey
	m.minutes = 0
	m.spend = 0
}

func (m *Monitor) Totals() (minutes, spend float64, monthKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolloverLocked()
	return m.minutes, m.spend, m.monthKey
}

// MonthlyUsageMinutes feeds the volume-discount bands.
func (m *Monitor) MonthlyUsageMinutes() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolloverLocked()
	return m.minutes
}

type LimitStatus struct {
	MonthKey    string   `json:"month_key"`
	Minutes     float64  `json:"minutes"`
	Spend       float64  `json:"spend"`
	CapUSD      float64  `json:"cap_usd,omitempty"`
	CapExceeded bool     `json:"cap_exceeded"`
	Warnings    []string `json:"warnings,omitempty"`
}

func (m *Monitor) CheckLimits() LimitStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolloverLocked()

	st := LimitStatus{MonthKey: m.monthKey, Minutes: m.minutes, Spend: m.spend, CapUSD: m.cfg.MonthlyCapUSD}
	if m.cfg.MonthlyCapUSD <= 0 {
		return st
	}

	threshold := m.cfg.MonthlyCapUSD * m.cfg.AlertThresholdPct
	if m.spend >= threshold {
		st.Warnings = append(st.Warnings, fmt.Sprintf(
			"spend $%.2f crossed %.0f%% of the $%.2f monthly cap",
			m.spend, m.cfg.AlertThresholdPct*100, m.cfg.MonthlyCapUSD))
	}
	if m.spend > m.cfg.MonthlyCapUSD {
		st.CapExceeded = true
		st.Warnings = append(st.Warnings, fmt.Sprintf(
			"monthly cap of $%.2f exceeded", m.cfg.MonthlyCapUSD))
	}
	return st
}

// RecommendDowngrades suggests cost cuts once spend passes half the monthly
// cap. Each suggestion is gated on the current tier actually using the feature.
func (m *Monitor) RecommendDowngrades(tier Tier) []string {
	m.mu.Lock()
	spend := m.spend
	m.mu.Unlock()

	if m.cfg.MonthlyCapUSD <= 0 || spend <= m.cfg.MonthlyCapUSD/2 {
		return nil
	}

	cfg := Resolve(tier, nil)
	var out []string
	if cfg.EnhancedModel {
		out = append(out, "disable the enhanced acoustic model")
	}
	if cfg.MaxSpeakers > 2 {
		out = append(out, "reduce the maximum speaker count")
	}
	if cfg.WordTimestamps {
		out = append(out, "disable word-level timestamps")
	}
	if !cfg.DataLogging {
		out = append(out, "enable data logging for the reduced rate")
	}
	return out
}
