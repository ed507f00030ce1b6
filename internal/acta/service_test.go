package acta

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikusi/acta-ui/internal/apiclient"
	"github.com/ikusi/acta-ui/internal/mockapi"
	"github.com/ikusi/acta-ui/internal/session/sessiontest"
)

// stubRequester answers every call through fn and records the requests.
type stubRequester struct {
	mu   sync.Mutex
	reqs []apiclient.Request
	fn   func(apiclient.Request) (*apiclient.Response, error)
}

func (s *stubRequester) Do(_ context.Context, r apiclient.Request) (*apiclient.Response, error) {
	s.mu.Lock()
	s.reqs = append(s.reqs, r)
	s.mu.Unlock()
	return s.fn(r)
}

func (s *stubRequester) last() apiclient.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[len(s.reqs)-1]
}

func jsonResponse(status int, body string) (*apiclient.Response, error) {
	return apiclient.NewResponse(http.MethodGet, "/", status, http.Header{"Content-Type": {"application/json"}}, []byte(body))
}

func mockService(t *testing.T) *Service {
	t.Helper()
	m, err := mockapi.New(mockapi.Options{Store: sessiontest.SignedIn(t, "admin@ikusi.com")})
	require.NoError(t, err)
	return NewService(m, 0)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat("word")
	require.NoError(t, err)
	assert.Equal(t, FormatDOCX, f)

	_, err = ParseFormat("xlsx")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestService_Health(t *testing.T) {
	h, err := mockService(t).Health(context.Background())
	require.NoError(t, err)
	assert.True(t, h.Healthy())
	assert.Equal(t, "Mock API server is running", h.Message)
}

func TestService_HealthUsesHealthTimeout(t *testing.T) {
	stub := &stubRequester{fn: func(apiclient.Request) (*apiclient.Response, error) {
		return jsonResponse(200, `{"status":"ok"}`)
	}}
	_, err := NewService(stub, 3*time.Second).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, stub.last().Timeout)
}

func TestService_ListProjects(t *testing.T) {
	projects, err := mockService(t).ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, Project{
		ID:         "1000000064013473",
		Name:       "Infrastructure Upgrade Phase 1",
		OwnerEmail: "admin@ikusi.com",
		Status:     "active",
		ActaStatus: "available",
		UpdatedAt:  projects[0].UpdatedAt,
	}, projects[0])
}

func TestService_ProjectsForManager(t *testing.T) {
	svc := mockService(t)

	projects, err := svc.ProjectsForManager(context.Background(), "admin@ikusi.com")
	require.NoError(t, err)
	assert.Len(t, projects, 3)

	all, err := svc.ProjectsForManager(context.Background(), AdminAllAccess)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.ProjectsForManager(context.Background(), "not-an-email")
	assert.Error(t, err)
}

func TestService_ProjectsForManagerPath(t *testing.T) {
	stub := &stubRequester{fn: func(apiclient.Request) (*apiclient.Response, error) {
		return jsonResponse(200, `{"projects":[{"project_id":1,"project_name":"A","project_manager":"x@y.com"}]}`)
	}}
	projects, err := NewService(stub, 0).ProjectsForManager(context.Background(), "alice+pm@example.com")
	require.NoError(t, err)

	assert.Equal(t, "/pm-manager/alice+pm@example.com", stub.last().Path)
	assert.Equal(t, []Project{{ID: "1", Name: "A", OwnerEmail: "x@y.com"}}, projects)
}

func TestService_GenerateDocument(t *testing.T) {
	g, err := mockService(t).GenerateDocument(context.Background(), "1000000064013473")
	require.NoError(t, err)
	assert.True(t, g.Success)
	assert.Equal(t, "1000000064013473", g.ProjectID)
	assert.Equal(t, "1000000064013473", g.DocumentID)
	assert.Equal(t, "s3://projectplace-dv-2025-x9a7b/acta/1000000064013473.docx", g.S3Location)

	_, err = mockService(t).GenerateDocument(context.Background(), "")
	assert.Error(t, err)
}

func TestService_GenerateDocumentBucketKey(t *testing.T) {
	stub := &stubRequester{fn: func(apiclient.Request) (*apiclient.Response, error) {
		return jsonResponse(200, `{"started":true,"bucket":"b","key":"acta/7.docx"}`)
	}}
	g, err := NewService(stub, 0).GenerateDocument(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, stub.last().Method)
	assert.Equal(t, "s3://b/acta/7.docx", g.S3Location)
	assert.Equal(t, "Document generation started", g.Message)
}

func TestService_CheckDocument(t *testing.T) {
	svc := mockService(t)

	status, err := svc.CheckDocument(context.Background(), "1000000064013473", FormatPDF)
	require.NoError(t, err)
	assert.True(t, status.Available)
	assert.Equal(t, "acta/1000000064013473.pdf", status.Key)
	assert.NotEmpty(t, status.LastModified)

	status, err = svc.CheckDocument(context.Background(), "1000000049842296", FormatDOCX)
	require.NoError(t, err)
	assert.False(t, status.Available)

	_, err = svc.CheckDocument(context.Background(), "1", Format("xls"))
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestService_CheckDocumentErrorsPropagate(t *testing.T) {
	stub := &stubRequester{fn: func(apiclient.Request) (*apiclient.Response, error) {
		return jsonResponse(500, `{"error":"boom"}`)
	}}
	_, err := NewService(stub, 0).CheckDocument(context.Background(), "1", FormatPDF)
	assert.ErrorIs(t, err, apiclient.ErrServer)
	assert.Equal(t, "pdf", stub.last().Query.Get("format"))
}

func TestService_DownloadURL(t *testing.T) {
	u, err := mockService(t).DownloadURL(context.Background(), "1000000064013473", FormatDOCX)
	require.NoError(t, err)
	assert.Contains(t, u, "/acta/1000000064013473.docx")
}

func TestService_DownloadURLVariants(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		header  http.Header
		body    string
		want    string
		wantErr error
	}{
		{"redirect", 302, http.Header{"Location": {"https://s3/x.pdf"}}, "", "https://s3/x.pdf", nil},
		{"redirect without location", 302, http.Header{}, "", "", ErrNoDownloadURL},
		{"json url", 200, http.Header{"Content-Type": {"application/json"}}, `{"url":"https://s3/a"}`, "https://s3/a", nil},
		{"json downloadUrl", 200, http.Header{"Content-Type": {"application/json"}}, `{"downloadUrl":"https://s3/b"}`, "https://s3/b", nil},
		{"empty json", 200, http.Header{"Content-Type": {"application/json"}}, `{}`, "", ErrNoDownloadURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubRequester{fn: func(r apiclient.Request) (*apiclient.Response, error) {
				return apiclient.NewResponse(http.MethodGet, r.Path, tt.status, tt.header, []byte(tt.body))
			}}
			u, err := NewService(stub, 0).DownloadURL(context.Background(), "1", FormatPDF)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u)
		})
	}
}

func TestService_SendApprovalEmail(t *testing.T) {
	a, err := mockService(t).SendApprovalEmail(context.Background(), "1000000064013473", "client@example.com")
	require.NoError(t, err)
	assert.True(t, a.Success)
	assert.Equal(t, "mock-approval-token", a.Token)

	stub := &stubRequester{fn: func(apiclient.Request) (*apiclient.Response, error) {
		return jsonResponse(200, `{"message":"email sent"}`)
	}}
	_, err = NewService(stub, 0).SendApprovalEmail(context.Background(), "1", "client@example.com")
	require.NoError(t, err)
	assert.Equal(t, "/send-approval-email", stub.last().Path)
	assert.Equal(t, struct {
		ActaID      string `json:"actaId"`
		ClientEmail string `json:"clientEmail"`
	}{"1", "client@example.com"}, stub.last().Body)
}

func TestService_SendApprovalEmailValidation(t *testing.T) {
	var calls atomic.Int32
	stub := &stubRequester{fn: func(apiclient.Request) (*apiclient.Response, error) {
		calls.Add(1)
		return jsonResponse(200, `{}`)
	}}
	svc := NewService(stub, 0)

	_, err := svc.SendApprovalEmail(context.Background(), "1", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clientEmail")

	_, err = svc.SendApprovalEmail(context.Background(), "", "client@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "projectId")
	assert.Zero(t, calls.Load())
}

func TestService_SummaryAndTimeline(t *testing.T) {
	svc := mockService(t)

	summary, err := svc.Summary(context.Background(), "1000")
	require.NoError(t, err)
	assert.Equal(t, "1000", summary.ProjectID)
	assert.Equal(t, "Project 1000", summary.ProjectName)

	timeline, err := svc.Timeline(context.Background(), "1000")
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, TimelineEntry{Milestone: "Kickoff", Activities: "Setup", Progress: "Init", Date: "2024-01-01"}, timeline[0])
}

func TestProjectSummary_Extra(t *testing.T) {
	var s ProjectSummary
	require.NoError(t, s.UnmarshalJSON([]byte(`{"project_id":"1","project_name":"A","budget":10}`)))
	assert.Equal(t, "1", s.ProjectID)
	assert.Equal(t, map[string]any{"budget": float64(10)}, s.Extra)
}

func TestService_UnauthorizedPropagates(t *testing.T) {
	stub := &stubRequester{fn: func(r apiclient.Request) (*apiclient.Response, error) {
		return nil, &apiclient.Error{Kind: apiclient.KindUnauthorized, Method: "GET", Path: r.Path, Status: 401}
	}}
	_, err := NewService(stub, 0).ListProjects(context.Background())
	assert.True(t, errors.Is(err, apiclient.ErrUnauthorized))
}
