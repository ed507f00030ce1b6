package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ikusi/acta-ui/internal/acta"
	"github.com/ikusi/acta-ui/internal/apiclient"
	"github.com/ikusi/acta-ui/internal/mockapi"
	"github.com/ikusi/acta-ui/internal/session/sessiontest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingRequester records the paths sent to the wrapped Requester.
type countingRequester struct {
	next  apiclient.Requester
	mu    sync.Mutex
	paths []string
}

func (c *countingRequester) Do(ctx context.Context, r apiclient.Request) (*apiclient.Response, error) {
	c.mu.Lock()
	c.paths = append(c.paths, r.Path)
	c.mu.Unlock()
	return c.next.Do(ctx, r)
}

func (c *countingRequester) called(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, p := range c.paths {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

type recordingOpener struct {
	mu   sync.Mutex
	urls []string
}

func (o *recordingOpener) Open(_ context.Context, url string) error {
	o.mu.Lock()
	o.urls = append(o.urls, url)
	o.mu.Unlock()
	return nil
}

func mockController(t *testing.T) (*Controller, *countingRequester, *Queue, *recordingOpener) {
	t.Helper()
	m, err := mockapi.New(mockapi.Options{Store: sessiontest.SignedIn(t, "admin@ikusi.com")})
	require.NoError(t, err)
	req := &countingRequester{next: m}
	toasts := &Queue{}
	opener := &recordingOpener{}
	c := NewController(acta.NewService(req, 0), toasts, opener, "admin@ikusi.com")
	require.NoError(t, c.Refresh(context.Background()))
	return c, req, toasts, opener
}

func TestController_DownloadWithoutDocument(t *testing.T) {
	c, req, toasts, opener := mockController(t)
	require.NoError(t, c.Select("1000000049842296"))

	err := c.DownloadPDF(context.Background())

	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, []Toast{{Level: LevelWarning, Message: MsgNotReady}}, toasts.Drain())
	assert.Equal(t, 1, req.called("/check-document/"))
	assert.Zero(t, req.called("/download-acta/"))
	assert.Empty(t, opener.urls)
	assert.False(t, c.Loading(ActionDownload, acta.FormatPDF))
}

func TestController_DownloadOpensURL(t *testing.T) {
	c, req, toasts, opener := mockController(t)
	require.NoError(t, c.Select("1000000064013473"))

	require.NoError(t, c.DownloadWord(context.Background()))

	require.Len(t, opener.urls, 1)
	assert.Contains(t, opener.urls[0], "/acta/1000000064013473.docx")
	assert.Equal(t, 1, req.called("/download-acta/"))
	assert.Equal(t, LevelSuccess, toasts.Drain()[0].Level)
}

func TestController_PreviewUsesPDF(t *testing.T) {
	c, _, _, opener := mockController(t)
	require.NoError(t, c.Select("1000000064013473"))

	require.NoError(t, c.Preview(context.Background()))
	require.Len(t, opener.urls, 1)
	assert.Contains(t, opener.urls[0], ".pdf")
}

func TestController_ActionsNeedSelection(t *testing.T) {
	c, req, toasts, _ := mockController(t)
	before := len(req.paths)

	actions := map[string]func(context.Context) error{
		"generate": c.Generate,
		"preview":  c.Preview,
		"pdf":      c.DownloadPDF,
		"word":     c.DownloadWord,
		"approval": func(ctx context.Context) error { return c.SendApproval(ctx, "client@example.com") },
	}
	for name, action := range actions {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, action(context.Background()), ErrNoSelection)
			assert.Equal(t, []Toast{{Level: LevelWarning, Message: MsgSelectProject}}, toasts.Drain())
		})
	}
	assert.Len(t, req.paths, before)
}

func TestController_GenerateAndApproval(t *testing.T) {
	c, _, toasts, _ := mockController(t)
	require.NoError(t, c.Select("1000000064013473"))

	require.NoError(t, c.Generate(context.Background()))
	require.NoError(t, c.SendApproval(context.Background(), "client@example.com"))

	got := toasts.Drain()
	require.Len(t, got, 2)
	assert.Contains(t, got[0].Message, "1000000064013473")
	assert.Contains(t, got[1].Message, "client@example.com")

	assert.Error(t, c.SendApproval(context.Background(), "not-an-email"))
	assert.Equal(t, LevelError, toasts.Drain()[0].Level)
}

func TestController_SelectUnknown(t *testing.T) {
	c, _, _, _ := mockController(t)
	assert.Error(t, c.Select("nope"))
	_, ok := c.Selected()
	assert.False(t, ok)
}

// blockingBackend holds every document call until release is closed.
type blockingBackend struct {
	release chan struct{}
	started sync.WaitGroup
	checks  atomic.Int32
	failFor acta.Format
}

func (b *blockingBackend) ListProjects(context.Context) ([]acta.Project, error) {
	return []acta.Project{{ID: "p1", Name: "One"}}, nil
}

func (b *blockingBackend) ProjectsForManager(ctx context.Context, _ string) ([]acta.Project, error) {
	return b.ListProjects(ctx)
}

func (b *blockingBackend) GenerateDocument(context.Context, string) (acta.Generation, error) {
	return acta.Generation{}, nil
}

func (b *blockingBackend) CheckDocument(ctx context.Context, id string, f acta.Format) (acta.DocumentStatus, error) {
	b.checks.Add(1)
	b.started.Done()
	select {
	case <-b.release:
	case <-ctx.Done():
		return acta.DocumentStatus{}, ctx.Err()
	}
	return acta.DocumentStatus{ProjectID: id, Format: f, Available: true}, nil
}

func (b *blockingBackend) DownloadURL(_ context.Context, id string, f acta.Format) (string, error) {
	if f == b.failFor {
		return "", &apiclient.Error{Kind: apiclient.KindServer, Method: "GET", Path: "/download-acta/" + id, Status: 500}
	}
	return "https://s3.example.com/" + id + "." + string(f), nil
}

func (b *blockingBackend) SendApprovalEmail(context.Context, string, string) (acta.Approval, error) {
	return acta.Approval{}, nil
}

func TestController_ConcurrentDownloadsAreIndependent(t *testing.T) {
	backend := &blockingBackend{release: make(chan struct{}), failFor: acta.FormatDOCX}
	backend.started.Add(2)
	toasts := &Queue{}
	opener := &recordingOpener{}
	c := NewController(backend, toasts, opener, "")
	require.NoError(t, c.Refresh(context.Background()))
	require.NoError(t, c.Select("p1"))

	var pdfErr, wordErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); pdfErr = c.DownloadPDF(context.Background()) }()
	go func() { defer wg.Done(); wordErr = c.DownloadWord(context.Background()) }()

	backend.started.Wait()
	assert.True(t, c.Loading(ActionDownload, acta.FormatPDF))
	assert.True(t, c.Loading(ActionDownload, acta.FormatDOCX))
	assert.False(t, c.Loading(ActionPreview, acta.FormatPDF))

	close(backend.release)
	wg.Wait()

	assert.NoError(t, pdfErr)
	assert.ErrorIs(t, wordErr, apiclient.ErrServer)
	assert.Equal(t, []string{"https://s3.example.com/p1.pdf"}, opener.urls)
	assert.False(t, c.Loading(ActionDownload, acta.FormatPDF))
	assert.False(t, c.Loading(ActionDownload, acta.FormatDOCX))
	assert.False(t, c.Busy())

	levels := map[Level]int{}
	for _, toast := range toasts.Drain() {
		levels[toast.Level]++
	}
	assert.Equal(t, map[Level]int{LevelSuccess: 1, LevelError: 1}, levels)
}

func TestController_LoadingResetOnCancel(t *testing.T) {
	backend := &blockingBackend{release: make(chan struct{})}
	backend.started.Add(1)
	c := NewController(backend, &Queue{}, &recordingOpener{}, "")
	require.NoError(t, c.Refresh(context.Background()))
	require.NoError(t, c.Select("p1"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Preview(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, c.Busy())
}

type failingBackend struct{ *blockingBackend }

func (failingBackend) ListProjects(context.Context) ([]acta.Project, error) {
	return nil, &apiclient.Error{Kind: apiclient.KindUnauthorized, Method: "GET", Path: "/projects", Status: 401}
}

func TestController_RefreshFailureDropsStaleRows(t *testing.T) {
	toasts := &Queue{}
	c := NewController(failingBackend{&blockingBackend{}}, toasts, nil, "")
	c.SetProjects([]acta.Project{{ID: "old"}})
	require.NoError(t, c.Select("old"))

	err := c.Refresh(context.Background())

	assert.True(t, errors.Is(err, apiclient.ErrUnauthorized))
	assert.Empty(t, c.Projects())
	_, ok := c.Selected()
	assert.False(t, ok)
	got := toasts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "Could not load projects: not authorized, please sign in again", got[0].Message)
}
