package leave

import (
	"math"
	"time"
)

// ValidateAdvanceNotice checks the lead time between now and the start of
// the leave's first day against the category's policy. The threshold is
// inclusive: exactly MinAdvanceHours of notice passes. A start date in the
// past yields negative notice and always fails the threshold. Categories
// with no notice requirement skip the check entirely, so same-day and
// retroactive records are allowed there.
func ValidateAdvanceNotice(category Category, policy Policy, startDate, now time.Time) error {
	if policy.MinAdvanceHours <= 0 {
		return nil
	}
	hoursUntilStart := StartOfDay(startDate).Sub(now).Hours()
	if hoursUntilStart < float64(policy.MinAdvanceHours) {
		return &AdvanceNoticeError{
			Category:      category,
			RequiredHours: policy.MinAdvanceHours,
			ActualHours:   int(math.Round(hoursUntilStart)),
		}
	}
	return nil
}

// AssertNotOnLeave fails when an approved request in the snapshot covers
// the current day. A requester who is away may not file any new request,
// whatever the new request's own dates.
func AssertNotOnLeave(existing []Request, now time.Time) error {
	for _, req := range existing {
		if req.Status != StatusApproved {
			continue
		}
		if CoversDay(req.StartDate, req.EndDate, now) {
			return &AlreadyOnLeaveError{Active: req}
		}
	}
	return nil
}

// DetectOverlap tests the candidate range against every non-rejected request
// in the snapshot and reports the first intersection found. Rejected ranges
// do not consume calendar time and are skipped.
func DetectOverlap(startDate, endDate time.Time, existing []Request) error {
	for _, req := range existing {
		if req.Status == StatusRejected {
			continue
		}
		if Overlaps(startDate, endDate, req.StartDate, req.EndDate) {
			return &DateConflictError{With: req}
		}
	}
	return nil
}
