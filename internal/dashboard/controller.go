// Package dashboard holds the project dashboard state and its actions,
// independent of how they are rendered.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ikusi/acta-ui/internal/acta"
	"github.com/ikusi/acta-ui/internal/apiclient"
	"github.com/ikusi/acta-ui/internal/logging"
)

const (
	MsgSelectProject = "Select a project first."
	MsgNotReady      = "Document not ready, try Generate first."
)

var (
	ErrNoSelection = errors.New("no project selected")
	ErrNotReady    = errors.New("document not ready")
)

// Backend is the part of acta.Service the dashboard drives.
type Backend interface {
	ListProjects(ctx context.Context) ([]acta.Project, error)
	ProjectsForManager(ctx context.Context, email string) ([]acta.Project, error)
	GenerateDocument(ctx context.Context, projectID string) (acta.Generation, error)
	CheckDocument(ctx context.Context, projectID string, format acta.Format) (acta.DocumentStatus, error)
	DownloadURL(ctx context.Context, projectID string, format acta.Format) (string, error)
	SendApprovalEmail(ctx context.Context, projectID, recipient string) (acta.Approval, error)
}

type Action string

const (
	ActionRefresh      Action = "refresh"
	ActionGenerate     Action = "generate"
	ActionPreview      Action = "preview"
	ActionDownload     Action = "download"
	ActionSendApproval Action = "send_approval"
)

// LoadingKey identifies one in-flight action. Format is empty for actions
// that do not produce a document.
type LoadingKey struct {
	Action Action
	Format acta.Format
}

// Controller owns the dashboard state. Actions may run concurrently; each
// reports its outcome through the Notifier and never panics on backend
// errors.
type Controller struct {
	backend  Backend
	notifier Notifier
	opener   Opener
	manager  string

	mu       sync.Mutex
	projects []acta.Project
	selected string
	loading  map[LoadingKey]int
}

// NewController builds a controller. manager restricts the list to one
// project manager's projects; empty lists every project the caller can see.
func NewController(backend Backend, notifier Notifier, opener Opener, manager string) *Controller {
	if opener == nil {
		opener = BrowserOpener{}
	}
	return &Controller{
		backend:  backend,
		notifier: notifier,
		opener:   opener,
		manager:  manager,
		loading:  make(map[LoadingKey]int),
	}
}

func (c *Controller) Projects() []acta.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]acta.Project(nil), c.projects...)
}

// SetProjects replaces the list, keeping the selection when it still exists.
func (c *Controller) SetProjects(projects []acta.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projects = append([]acta.Project(nil), projects...)
	if c.indexLocked(c.selected) < 0 {
		c.selected = ""
	}
}

func (c *Controller) Select(projectID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexLocked(projectID) < 0 {
		return fmt.Errorf("unknown project %q", projectID)
	}
	c.selected = projectID
	return nil
}

func (c *Controller) Selected() (acta.Project, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(c.selected); i >= 0 {
		return c.projects[i], true
	}
	return acta.Project{}, false
}

func (c *Controller) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, p := range c.projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Loading reports whether the action is in flight.
func (c *Controller) Loading(action Action, format acta.Format) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading[LoadingKey{action, format}] > 0
}

// Busy reports whether any action is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.loading) > 0
}

func (c *Controller) begin(key LoadingKey) func() {
	c.mu.Lock()
	c.loading[key]++
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		if c.loading[key]--; c.loading[key] <= 0 {
			delete(c.loading, key)
		}
		c.mu.Unlock()
	}
}

func (c *Controller) requireSelection() (acta.Project, error) {
	p, ok := c.Selected()
	if !ok {
		c.notify(LevelWarning, MsgSelectProject)
		return acta.Project{}, ErrNoSelection
	}
	return p, nil
}

func (c *Controller) notify(level Level, msg string) {
	if c.notifier != nil {
		c.notifier.Notify(Toast{Level: level, Message: msg})
	}
}

// fail reports err as an error toast and returns it.
func (c *Controller) fail(ctx context.Context, action Action, prefix string, err error) error {
	logging.NewLogger(ctx).LogError(string(action), err)
	c.notify(LevelError, prefix+": "+Describe(err))
	return err
}

// Refresh reloads the project list. On failure the list is emptied rather
// than left showing stale rows.
func (c *Controller) Refresh(ctx context.Context) error {
	defer c.begin(LoadingKey{Action: ActionRefresh})()

	var (
		projects []acta.Project
		err      error
	)
	if c.manager != "" {
		projects, err = c.backend.ProjectsForManager(ctx, c.manager)
	} else {
		projects, err = c.backend.ListProjects(ctx)
	}
	if err != nil {
		c.SetProjects(nil)
		return c.fail(ctx, ActionRefresh, "Could not load projects", err)
	}
	c.SetProjects(projects)
	return nil
}

func (c *Controller) Generate(ctx context.Context) error {
	p, err := c.requireSelection()
	if err != nil {
		return err
	}
	defer c.begin(LoadingKey{Action: ActionGenerate})()

	g, err := c.backend.GenerateDocument(ctx, p.ID)
	if err != nil {
		return c.fail(ctx, ActionGenerate, "Generation failed", err)
	}
	msg := g.Message
	if msg == "" {
		msg = "Document generation started"
	}
	c.notify(LevelSuccess, fmt.Sprintf("%s (%s)", msg, p.ID))
	return nil
}

// Preview opens the PDF of the selected project.
func (c *Controller) Preview(ctx context.Context) error {
	return c.open(ctx, ActionPreview, acta.FormatPDF)
}

func (c *Controller) DownloadPDF(ctx context.Context) error {
	return c.Download(ctx, acta.FormatPDF)
}

func (c *Controller) DownloadWord(ctx context.Context) error {
	return c.Download(ctx, acta.FormatDOCX)
}

func (c *Controller) Download(ctx context.Context, format acta.Format) error {
	return c.open(ctx, ActionDownload, format)
}

// open checks that the document exists before asking for its URL, so a
// missing document never reaches the download endpoint.
func (c *Controller) open(ctx context.Context, action Action, format acta.Format) error {
	p, err := c.requireSelection()
	if err != nil {
		return err
	}
	defer c.begin(LoadingKey{Action: action, Format: format})()

	status, err := c.backend.CheckDocument(ctx, p.ID, format)
	if err != nil {
		return c.fail(ctx, action, "Could not check document", err)
	}
	if !status.Available {
		c.notify(LevelWarning, MsgNotReady)
		return ErrNotReady
	}

	url, err := c.backend.DownloadURL(ctx, p.ID, format)
	if err != nil {
		return c.fail(ctx, action, "Download failed", err)
	}
	if err := c.opener.Open(ctx, url); err != nil {
		return c.fail(ctx, action, "Could not open document", err)
	}

	if action == ActionPreview {
		c.notify(LevelSuccess, "Preview opened")
	} else {
		c.notify(LevelSuccess, fmt.Sprintf("%s download started", format))
	}
	return nil
}

func (c *Controller) SendApproval(ctx context.Context, recipient string) error {
	p, err := c.requireSelection()
	if err != nil {
		return err
	}
	defer c.begin(LoadingKey{Action: ActionSendApproval})()

	a, err := c.backend.SendApprovalEmail(ctx, p.ID, recipient)
	if err != nil {
		return c.fail(ctx, ActionSendApproval, "Approval email failed", err)
	}
	msg := a.Message
	if msg == "" {
		msg = "Approval email sent"
	}
	c.notify(LevelSuccess, fmt.Sprintf("%s to %s", msg, recipient))
	return nil
}

// Describe turns an error into a message for a toast.
func Describe(err error) string {
	switch apiclient.KindOf(err) {
	case apiclient.KindUnauthorized:
		return "not authorized, please sign in again"
	case apiclient.KindTimeout:
		return "the request timed out"
	case apiclient.KindNetwork:
		return "network error, check your connection"
	}
	return err.Error()
}
