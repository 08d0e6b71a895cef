// Package progress computes derived progress facts for a savings goal.
// Everything here is pure: no I/O, no clock reads, all money arithmetic in
// exact decimals.
package progress

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/goalstash/goalstash/internal/model"
)

// Milestone thresholds in ascending order. 100 is reached when the goal
// completes; the scanner never notifies it because the completion path owns
// that event.
var MilestoneThresholds = []int{25, 50, 75, 100}

var hundred = decimal.NewFromInt(100)

// Snapshot is the derived, non-persisted view of a goal's progress.
type Snapshot struct {
	// Percent is rounded to two decimal places (half-up) for display.
	Percent decimal.Decimal
	// RawPercent is unrounded; milestone comparisons use it so rounding can
	// never fake a crossed threshold.
	RawPercent decimal.Decimal
	Remaining  decimal.Decimal
	// DaysLeft is nil when the goal has no target date.
	DaysLeft        *int
	MilestoneBucket int
	PeriodsLeft     int
	// Recommended is the per-period contribution that still reaches the
	// target by the target date.
	Recommended decimal.Decimal
	NextDueDate *time.Time
	IsDue       bool
}

// Compute derives a Snapshot from a goal as of the given day. The time
// portion of today is ignored.
func Compute(goal *model.Goal, today time.Time) Snapshot {
	target := goal.TargetAmount
	saved := goal.SavedAmount

	var raw decimal.Decimal
	switch {
	case target.IsZero():
		// Zero targets are rejected at creation; guard anyway.
		if saved.IsPositive() {
			raw = hundred
		}
	default:
		raw = saved.Div(target).Mul(hundred)
	}
	if raw.IsNegative() {
		raw = decimal.Zero
	}

	remaining := target.Sub(saved)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	snap := Snapshot{
		Percent:         raw.Round(2),
		RawPercent:      raw,
		Remaining:       remaining,
		MilestoneBucket: Bucket(raw),
		Recommended:     remaining,
		NextDueDate:     goal.NextDueDate,
	}

	day := truncateDay(today)

	if goal.TargetDate != nil {
		days := int(truncateDay(*goal.TargetDate).Sub(day).Hours() / 24)
		if days < 0 {
			days = 0
		}
		snap.DaysLeft = &days

		periodDays := model.PeriodDays[goal.Frequency]
		if periodDays == 0 {
			periodDays = model.PeriodDays[model.FrequencyMonthly]
		}
		if days > 0 {
			snap.PeriodsLeft = (days + periodDays - 1) / periodDays
		}
		if snap.PeriodsLeft > 0 {
			snap.Recommended = remaining.
				Div(decimal.NewFromInt(int64(snap.PeriodsLeft))).
				Round(2)
		}
	}

	if goal.NextDueDate != nil && !truncateDay(*goal.NextDueDate).After(day) {
		snap.IsDue = true
	}

	return snap
}

// Bucket returns the highest milestone threshold the unrounded percent has
// reached, or 0 when none has.
func Bucket(rawPercent decimal.Decimal) int {
	bucket := 0
	for _, m := range MilestoneThresholds {
		if rawPercent.GreaterThanOrEqual(decimal.NewFromInt(int64(m))) {
			bucket = m
		}
	}
	return bucket
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
