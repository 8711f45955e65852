package student

import (
	"math"
	"time"

	"github.com/trezcool/madrasa/core"
)

type Status string

// Subscription states
const (
	StatusActive  Status = "active"
	StatusWarning Status = "warning"
	StatusExpired Status = "expired"
	StatusUnknown Status = "unknown"
)

// Evaluator maps a Student to its subscription Status.
// The result depends on `now` and must never be stored.
type Evaluator struct {
	WarningDays     int // time-based: days remaining at or below which the subscription is in warning
	WarningSessions int // per_session: sessions remaining at or below which the subscription is in warning
}

var DefaultEvaluator = Evaluator{WarningDays: 5, WarningSessions: 2}

// NewEvaluator builds an Evaluator from the configured thresholds.
func NewEvaluator(conf core.BillingConfig) Evaluator {
	return Evaluator{WarningDays: conf.WarningDays, WarningSessions: conf.WarningSessions}
}

// DaysRemaining returns the number of started days between now and end, rounded up.
func DaysRemaining(end, now time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

func (ev Evaluator) Status(s Student, now time.Time) Status {
	if s.SubscriptionType == PerSession {
		switch {
		case s.SessionsRemaining <= 0:
			return StatusExpired
		case s.SessionsRemaining <= ev.WarningSessions:
			return StatusWarning
		default:
			return StatusActive
		}
	}

	if !s.SubscriptionEndDate.Valid {
		return StatusUnknown
	}
	days := DaysRemaining(s.SubscriptionEndDate.Time, now)
	switch {
	case days < 0:
		return StatusExpired
	case days <= ev.WarningDays:
		return StatusWarning
	default:
		return StatusActive
	}
}

// Snapshot evaluates s at now.
func (ev Evaluator) Snapshot(s Student, now time.Time) Snapshot {
	snap := Snapshot{Student: s, Status: ev.Status(s, now)}
	if s.SubscriptionType.IsTimeBased() && s.SubscriptionEndDate.Valid {
		days := DaysRemaining(s.SubscriptionEndDate.Time, now)
		snap.DaysRemaining = &days
	}
	return snap
}

// StatusAt evaluates s at now with the default thresholds.
func StatusAt(s Student, now time.Time) Status {
	return DefaultEvaluator.Status(s, now)
}

// statusRank orders states from the most to the least urgent.
func statusRank(st Status) int {
	switch st {
	case StatusExpired:
		return 0
	case StatusWarning:
		return 1
	case StatusActive:
		return 2
	default:
		return 3
	}
}
