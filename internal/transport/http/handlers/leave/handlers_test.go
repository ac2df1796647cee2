package leavehandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/domain/notifications"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type stubDirectory struct {
	members []string
	err     error
}

func (d stubDirectory) TeamMemberIDs(context.Context, string) ([]string, error) {
	return d.members, d.err
}

type fixture struct {
	router chi.Router
	store  *leave.MemoryStore
	log    *notifications.Log
}

func newFixture(t *testing.T, dir UserDirectory) *fixture {
	t.Helper()
	store := leave.NewMemoryStore()
	log := notifications.NewLog()
	engine := leave.NewEngine(store, log, leave.WithClock(func() time.Time { return testNow }))

	router := chi.NewRouter()
	NewHandler(engine, dir).RegisterRoutes(router)
	return &fixture{router: router, store: store, log: log}
}

func (f *fixture) do(t *testing.T, method, target string, body any, user *auth.UserContext) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), *user))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) api.Envelope {
	t.Helper()
	var envelope api.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope
}

func employee(id string) *auth.UserContext {
	return &auth.UserContext{UserID: id, Role: auth.RoleEmployee, Department: "engineering"}
}

func head(id string) *auth.UserContext {
	return &auth.UserContext{UserID: id, Role: auth.RoleDepartmentHead, Department: "engineering"}
}

func admin(id string) *auth.UserContext {
	return &auth.UserContext{UserID: id, Role: auth.RoleAdmin}
}

func plannedPayload() map[string]string {
	return map[string]string{
		"leaveType": "planned",
		"startDate": "2025-06-10",
		"endDate":   "2025-06-12",
		"reason":    "family visit",
	}
}

func TestSubmitRequiresAuthentication(t *testing.T) {
	f := newFixture(t, stubDirectory{})
	rec := f.do(t, http.MethodPost, "/leave/requests", plannedPayload(), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitCreatesRequest(t *testing.T) {
	f := newFixture(t, stubDirectory{})
	rec := f.do(t, http.MethodPost, "/leave/requests", plannedPayload(), employee("emp-1"))

	require.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)

	data := envelope.Data.(map[string]any)
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, float64(3), data["totalDays"])
	assert.Equal(t, "emp-1", data["requesterId"])
}

func TestSubmitAdminForbidden(t *testing.T) {
	f := newFixture(t, stubDirectory{})
	rec := f.do(t, http.MethodPost, "/leave/requests", plannedPayload(), admin("admin-1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmitErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		payload  map[string]string
		wantCode int
		wantErr  string
	}{
		{
			name: "unknown type",
			payload: map[string]string{
				"leaveType": "sabbatical", "startDate": "2025-06-10", "endDate": "2025-06-10", "reason": "x",
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "unknown_leave_type",
		},
		{
			name: "short notice",
			payload: map[string]string{
				"leaveType": "planned", "startDate": "2025-06-02", "endDate": "2025-06-02", "reason": "x",
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "advance_notice_too_short",
		},
		{
			name: "sick without document",
			payload: map[string]string{
				"leaveType": "sick", "startDate": "2025-06-01", "endDate": "2025-06-01", "reason": "flu",
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "document_required",
		},
		{
			name: "bad date",
			payload: map[string]string{
				"leaveType": "planned", "startDate": "June 10", "endDate": "2025-06-12", "reason": "x",
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "validation_error",
		},
		{
			name: "empty reason",
			payload: map[string]string{
				"leaveType": "planned", "startDate": "2025-06-10", "endDate": "2025-06-12", "reason": " ",
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "validation_error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, stubDirectory{})
			rec := f.do(t, http.MethodPost, "/leave/requests", tc.payload, employee("emp-1"))
			require.Equal(t, tc.wantCode, rec.Code)
			envelope := decodeEnvelope(t, rec)
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tc.wantErr, envelope.Error.Code)
		})
	}
}

func TestSubmitOverlapConflict(t *testing.T) {
	f := newFixture(t, stubDirectory{})

	rec := f.do(t, http.MethodPost, "/leave/requests", plannedPayload(), employee("emp-1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	payload := plannedPayload()
	payload["startDate"] = "2025-06-12"
	payload["endDate"] = "2025-06-14"
	rec = f.do(t, http.MethodPost, "/leave/requests", payload, employee("emp-1"))

	require.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "date_conflict", envelope.Error.Code)
}

func TestHeadSubmissionUsesAdministrativeCatalogue(t *testing.T) {
	f := newFixture(t, stubDirectory{})

	payload := map[string]string{
		"leaveType": "annual",
		"startDate": "2025-06-02",
		"endDate":   "2025-06-04",
		"reason":    "annual leave",
	}
	rec := f.do(t, http.MethodPost, "/leave/requests", payload, head("head-1"))

	require.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope.Data.(map[string]any)
	category := data["category"].(map[string]any)
	assert.Equal(t, "administrative", category["domain"])
	assert.Equal(t, true, data["selfRequest"])

	// Filing it raised a new-request entry for the admin audience.
	assert.Len(t, f.log.ListFor(notifications.AdminAudience), 1)
}

func TestListScopes(t *testing.T) {
	f := newFixture(t, stubDirectory{members: []string{"emp-1"}})

	rec := f.do(t, http.MethodPost, "/leave/requests", plannedPayload(), employee("emp-1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	other := plannedPayload()
	rec = f.do(t, http.MethodPost, "/leave/requests", other, employee("emp-2"))
	require.Equal(t, http.StatusCreated, rec.Code)

	listLen := func(rec *httptest.ResponseRecorder) int {
		envelope := decodeEnvelope(t, rec)
		return len(envelope.Data.([]any))
	}

	t.Run("own sees only own", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/leave/requests", nil, employee("emp-1"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, listLen(rec))
	})

	t.Run("team scope forbidden for employees", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/leave/requests?scope=team", nil, employee("emp-1"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("team scope resolves via directory", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/leave/requests?scope=team", nil, head("head-1"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, listLen(rec))
	})

	t.Run("all scope admin only", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/leave/requests?scope=all", nil, head("head-1"))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = f.do(t, http.MethodGet, "/leave/requests?scope=all", nil, admin("admin-1"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, listLen(rec))
	})

	t.Run("unknown scope rejected", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/leave/requests?scope=everything", nil, admin("admin-1"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListTeamDirectoryUnavailable(t *testing.T) {
	f := newFixture(t, stubDirectory{err: fmt.Errorf("directory down")})
	rec := f.do(t, http.MethodGet, "/leave/requests?scope=team", nil, head("head-1"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetHidesOtherEmployeesRequests(t *testing.T) {
	f := newFixture(t, stubDirectory{})

	rec := f.do(t, http.MethodPost, "/leave/requests", plannedPayload(), employee("emp-1"))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeEnvelope(t, rec).Data.(map[string]any)["id"].(string)

	rec = f.do(t, http.MethodGet, "/leave/requests/"+id, nil, employee("emp-2"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/leave/requests/"+id, nil, head("head-1"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApproveFlow(t *testing.T) {
	f := newFixture(t, stubDirectory{})

	rec := f.do(t, http.MethodPost, "/leave/requests", plannedPayload(), employee("emp-1"))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeEnvelope(t, rec).Data.(map[string]any)["id"].(string)

	t.Run("requester cannot approve their own", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/leave/requests/"+id+"/approve", nil, employee("emp-1"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("head approves employee request", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/leave/requests/"+id+"/approve", nil, head("head-1"))
		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeEnvelope(t, rec).Data.(map[string]any)
		assert.Equal(t, "approved", data["status"])
	})

	t.Run("second decision conflicts", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/leave/requests/"+id+"/reject", nil, admin("admin-1"))
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "already_finalized", decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("unknown request is 404", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/leave/requests/nope/approve", nil, admin("admin-1"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteOwnerOrAdminOnly(t *testing.T) {
	f := newFixture(t, stubDirectory{})

	rec := f.do(t, http.MethodPost, "/leave/requests", plannedPayload(), employee("emp-1"))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeEnvelope(t, rec).Data.(map[string]any)["id"].(string)

	rec = f.do(t, http.MethodDelete, "/leave/requests/"+id, nil, employee("emp-2"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodDelete, "/leave/requests/"+id, nil, employee("emp-1"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/leave/requests/"+id, nil, admin("admin-1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPolicies(t *testing.T) {
	f := newFixture(t, stubDirectory{})

	rec := f.do(t, http.MethodGet, "/leave/policies", nil, employee("emp-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Len(t, envelope.Data.([]any), 6)
}

func TestCalendarExportRoleGated(t *testing.T) {
	f := newFixture(t, stubDirectory{})

	rec := f.do(t, http.MethodGet, "/leave/calendar/export", nil, employee("emp-1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/leave/calendar/export", nil, admin("admin-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	// The document is rendered in full before any header is written.
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}
