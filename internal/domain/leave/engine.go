package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/notifications"
)

// Submission is the inbound shape for a new leave request.
type Submission struct {
	RequesterID   string
	RequesterRole string
	Category      Category
	StartDate     time.Time
	EndDate       time.Time
	Reason        string
	DocumentRef   string
}

// Engine owns the request lifecycle: submit -> pending -> approved/rejected,
// with delete as a separate destructive operation. Validation runs against a
// snapshot fetched under a per-requester lock, closing the check-then-act
// window between reading existing requests and persisting the new one.
type Engine struct {
	policies *PolicyTable
	store    RecordStore
	sink     notifications.Sink
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type EngineOption func(*Engine)

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func WithPolicyTable(table *PolicyTable) EngineOption {
	return func(e *Engine) { e.policies = table }
}

func NewEngine(store RecordStore, sink notifications.Sink, opts ...EngineOption) *Engine {
	e := &Engine{
		policies: DefaultPolicyTable(),
		store:    store,
		sink:     sink,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Policies() *PolicyTable {
	return e.policies
}

// requesterLock serializes submit/decide per requester.
func (e *Engine) requesterLock(requesterID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[requesterID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[requesterID] = lock
	}
	return lock
}

// Submit runs the full validation chain and creates a pending record.
// Checks run in order and the first violated rule wins: policy lookup,
// document requirement, advance notice, active-leave guard, overlap
// detection. The document check sits with the policy lookup because it
// only inspects the submission's own shape, never the clock or the
// snapshot. A department head's own submission additionally notifies the
// admin audience.
func (e *Engine) Submit(ctx context.Context, sub Submission) (Request, error) {
	if err := validateSubmission(sub); err != nil {
		return Request{}, err
	}

	policy, err := e.policies.Resolve(sub.Category)
	if err != nil {
		return Request{}, err
	}
	if policy.DocumentRequired && sub.DocumentRef == "" {
		return Request{}, fmt.Errorf("%w for %s leave", ErrDocumentRequired, sub.Category.Code)
	}

	now := e.now()
	if err := ValidateAdvanceNotice(sub.Category, policy, sub.StartDate, now); err != nil {
		return Request{}, err
	}

	lock := e.requesterLock(sub.RequesterID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := e.store.OpenRequests(ctx, sub.RequesterID)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := AssertNotOnLeave(existing, now); err != nil {
		return Request{}, err
	}
	if err := DetectOverlap(sub.StartDate, sub.EndDate, existing); err != nil {
		return Request{}, err
	}

	req := Request{
		ID:            uuid.NewString(),
		RequesterID:   sub.RequesterID,
		RequesterRole: sub.RequesterRole,
		Category:      sub.Category,
		StartDate:     StartOfDay(sub.StartDate),
		EndDate:       StartOfDay(sub.EndDate),
		Reason:        strings.TrimSpace(sub.Reason),
		DocumentRef:   sub.DocumentRef,
		Status:        StatusPending,
		TotalDays:     DaysInclusive(sub.StartDate, sub.EndDate),
		SelfRequest:   sub.RequesterRole == auth.RoleDepartmentHead,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := e.store.Insert(ctx, req); err != nil {
		// The postgres store maps exclusion-constraint violations to a
		// date conflict; that verdict must reach the caller as-is.
		if errors.Is(err, ErrDateConflict) {
			return Request{}, err
		}
		return Request{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if e.sink != nil && req.RequesterRole == auth.RoleDepartmentHead {
		e.sink.Append(notifications.Entry{
			Recipient: notifications.AdminAudience,
			SubjectID: req.ID,
			Kind:      notifications.KindNewRequest,
			LeaveType: req.Category.Code,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Reason:    req.Reason,
		})
	}

	return req, nil
}

// Decide transitions a pending request to approved or rejected. Authority
// is re-checked here regardless of any gating the caller did. Finalized
// requests never transition again.
func (e *Engine) Decide(ctx context.Context, requestID, actorRole, actorID string, outcome Status) (Request, error) {
	if outcome != StatusApproved && outcome != StatusRejected {
		return Request{}, &ValidationError{Field: "outcome", Reason: "must be approved or rejected"}
	}

	req, err := e.load(ctx, requestID)
	if err != nil {
		return Request{}, err
	}

	if !CanAct(actorRole, actorID, req) {
		return Request{}, ErrForbidden
	}

	lock := e.requesterLock(req.RequesterID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock; a concurrent decision may have finalized it.
	req, err = e.load(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, fmt.Errorf("%w: status is %s", ErrAlreadyFinalized, req.Status)
	}

	now := e.now()
	if err := e.store.SetStatus(ctx, requestID, outcome, now); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	req.Status = outcome
	req.UpdatedAt = now

	if e.sink != nil && req.RequesterRole == auth.RoleDepartmentHead {
		e.sink.Append(notifications.Entry{
			Recipient: req.RequesterID,
			SubjectID: req.ID,
			Kind:      notifications.KindStatusChange,
			LeaveType: req.Category.Code,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Status:    string(outcome),
		})
	}

	return req, nil
}

// Remove deletes the record from any state. It is not a status transition
// and emits no notification; authorization is the caller's concern.
func (e *Engine) Remove(ctx context.Context, requestID string) error {
	if _, err := e.load(ctx, requestID); err != nil {
		return err
	}
	if err := e.store.Delete(ctx, requestID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (e *Engine) Get(ctx context.Context, requestID string) (Request, error) {
	return e.load(ctx, requestID)
}

func (e *Engine) List(ctx context.Context, filter ListFilter) ([]Request, error) {
	out, err := e.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return out, nil
}

func (e *Engine) load(ctx context.Context, requestID string) (Request, error) {
	req, err := e.store.Get(ctx, requestID)
	if err == nil {
		return req, nil
	}
	if isNotFound(err) {
		return Request{}, ErrNotFound
	}
	return Request{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func validateSubmission(sub Submission) error {
	if strings.TrimSpace(sub.RequesterID) == "" {
		return &ValidationError{Field: "requesterId", Reason: "required"}
	}
	if !auth.ValidRole(sub.RequesterRole) {
		return &ValidationError{Field: "requesterRole", Reason: "unknown role"}
	}
	if strings.TrimSpace(sub.Reason) == "" {
		return &ValidationError{Field: "reason", Reason: "required"}
	}
	if sub.StartDate.IsZero() || sub.EndDate.IsZero() {
		return &ValidationError{Field: "startDate", Reason: "start and end dates are required"}
	}
	if StartOfDay(sub.EndDate).Before(StartOfDay(sub.StartDate)) {
		return &ValidationError{Field: "endDate", Reason: "must be on or after startDate"}
	}
	return nil
}
