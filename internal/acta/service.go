// Package acta exposes the ACTA backend operations on top of a Requester.
package acta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/ikusi/acta-ui/internal/apiclient"
	"github.com/ikusi/acta-ui/internal/logging"
)

// AdminAllAccess is the pseudo manager email that lists every project.
const AdminAllAccess = "admin-all-access"

var ErrNoDownloadURL = errors.New("download endpoint returned no URL")

// Service is the typed ACTA backend.
type Service struct {
	api           apiclient.Requester
	healthTimeout time.Duration
}

func NewService(api apiclient.Requester, healthTimeout time.Duration) *Service {
	if healthTimeout <= 0 {
		healthTimeout = apiclient.HealthTimeout
	}
	return &Service{api: api, healthTimeout: healthTimeout}
}

// Health probes the gateway. It is the only unauthenticated call.
func (s *Service) Health(ctx context.Context) (Health, error) {
	var h Health
	resp, err := s.api.Do(ctx, apiclient.Request{Path: "/health", Timeout: s.healthTimeout})
	if err != nil {
		return h, err
	}
	if resp.Kind != apiclient.BodyJSON {
		return Health{Status: resp.Text()}, nil
	}
	return h, resp.Decode(&h)
}

func (s *Service) ListProjects(ctx context.Context) ([]Project, error) {
	resp, err := s.api.Do(ctx, apiclient.Request{Path: "/projects"})
	if err != nil {
		return nil, err
	}
	return decodeProjects(resp)
}

// ProjectsForManager lists the projects owned by email. AdminAllAccess
// lists every project.
func (s *Service) ProjectsForManager(ctx context.Context, email string) ([]Project, error) {
	path := "/pm-projects/all-projects"
	if email != AdminAllAccess {
		if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
			return nil, fmt.Errorf("manager email: %w", err)
		}
		path = "/pm-manager/" + url.PathEscape(email)
	}

	resp, err := s.api.Do(ctx, apiclient.Request{Path: path})
	if err != nil {
		return nil, err
	}
	return decodeProjects(resp)
}

// decodeProjects accepts a bare array or an object wrapping it in "projects".
func decodeProjects(resp *apiclient.Response) ([]Project, error) {
	var list []Project
	if err := json.Unmarshal(resp.Body, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Projects []Project `json:"projects"`
	}
	if err := resp.Decode(&wrapped); err != nil {
		return nil, err
	}
	return wrapped.Projects, nil
}

// GenerateDocument triggers generation of the acta for projectID.
func (s *Service) GenerateDocument(ctx context.Context, projectID string) (Generation, error) {
	if err := validateProjectID(projectID); err != nil {
		return Generation{}, err
	}
	logger := logging.NewLogger(ctx)

	resp, err := s.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/extract-project-place/" + url.PathEscape(projectID),
		Body:   map[string]any{},
	})
	if err != nil {
		logger.LogErrorf("generate_document", "generation failed for project_id=%s: %v", projectID, err)
		return Generation{}, err
	}

	g := Generation{Success: true, ProjectID: projectID}
	if resp.Kind == apiclient.BodyJSON && len(resp.Body) > 0 {
		if err := resp.Decode(&g); err != nil {
			return Generation{}, err
		}
	}
	if g.ProjectID == "" {
		g.ProjectID = projectID
	}
	if g.DocumentID == "" {
		g.DocumentID = projectID
	}
	if g.S3Location == "" && g.Bucket != "" && g.Key != "" {
		g.S3Location = "s3://" + g.Bucket + "/" + g.Key
	}
	if g.Message == "" {
		g.Message = "Document generation started"
	}
	logger.LogInfof("generate_document", "generation triggered for project_id=%s", projectID)
	return g, nil
}

// CheckDocument reports whether the document exists. A 404 means not
// generated yet and is not an error.
func (s *Service) CheckDocument(ctx context.Context, projectID string, format Format) (DocumentStatus, error) {
	status := DocumentStatus{ProjectID: projectID, Format: format}
	if err := validateDocumentRequest(projectID, format); err != nil {
		return status, err
	}

	resp, err := s.api.Do(ctx, apiclient.Request{
		Path:  "/check-document/" + url.PathEscape(projectID),
		Query: url.Values{"format": {string(format)}},
	})
	if err != nil {
		if apiclient.StatusOf(err) == http.StatusNotFound {
			return status, nil
		}
		return status, err
	}

	status.Available = true
	if resp.Kind == apiclient.BodyJSON && len(resp.Body) > 0 {
		var body struct {
			Available    *bool  `json:"available"`
			LastModified string `json:"last_modified"`
			Size         int64  `json:"size"`
			Key          string `json:"s3_key"`
		}
		if err := resp.Decode(&body); err != nil {
			return status, err
		}
		if body.Available != nil {
			status.Available = *body.Available
		}
		status.LastModified = body.LastModified
		status.Size = body.Size
		status.Key = body.Key
	}
	if status.LastModified == "" {
		status.LastModified = resp.Header.Get("Last-Modified")
	}
	if status.Size == 0 {
		status.Size, _ = strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	}
	return status, nil
}

// DownloadURL returns the temporary signed URL of the document. The
// endpoint answers with a redirect; a JSON body carrying the URL is also
// accepted.
func (s *Service) DownloadURL(ctx context.Context, projectID string, format Format) (string, error) {
	if err := validateDocumentRequest(projectID, format); err != nil {
		return "", err
	}

	resp, err := s.api.Do(ctx, apiclient.Request{
		Path:  "/download-acta/" + url.PathEscape(projectID),
		Query: url.Values{"format": {string(format)}},
	})
	if err != nil {
		return "", err
	}

	if resp.Redirect() {
		if resp.Location == "" {
			return "", fmt.Errorf("%w: missing Location header", ErrNoDownloadURL)
		}
		return resp.Location, nil
	}
	if resp.Kind == apiclient.BodyJSON {
		var body struct {
			URL         string `json:"url"`
			DownloadURL string `json:"downloadUrl"`
		}
		if err := resp.Decode(&body); err != nil {
			return "", err
		}
		if u := firstNonEmpty(body.URL, body.DownloadURL); u != "" {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: status %d", ErrNoDownloadURL, resp.Status)
}

// SendApprovalEmail starts the client approval workflow for projectID.
func (s *Service) SendApprovalEmail(ctx context.Context, projectID, recipient string) (Approval, error) {
	err := validation.Errors{
		"projectId":   validation.Validate(projectID, validation.Required),
		"clientEmail": validation.Validate(recipient, validation.Required, is.EmailFormat),
	}.Filter()
	if err != nil {
		return Approval{}, err
	}

	resp, err := s.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/send-approval-email",
		Body: struct {
			ActaID      string `json:"actaId"`
			ClientEmail string `json:"clientEmail"`
		}{projectID, recipient},
	})
	if err != nil {
		return Approval{}, err
	}

	a := Approval{Success: true}
	if resp.Kind == apiclient.BodyJSON && len(resp.Body) > 0 {
		if err := resp.Decode(&a); err != nil {
			return Approval{}, err
		}
	}
	if a.Message == "" {
		a.Message = "Approval email sent"
	}
	logging.NewLogger(ctx).LogInfof("send_approval_email", "approval requested for project_id=%s", projectID)
	return a, nil
}

func (s *Service) Summary(ctx context.Context, projectID string) (ProjectSummary, error) {
	var summary ProjectSummary
	if err := validateProjectID(projectID); err != nil {
		return summary, err
	}
	resp, err := s.api.Do(ctx, apiclient.Request{Path: "/project-summary/" + url.PathEscape(projectID)})
	if err != nil {
		return summary, err
	}
	return summary, resp.Decode(&summary)
}

func (s *Service) Timeline(ctx context.Context, projectID string) ([]TimelineEntry, error) {
	if err := validateProjectID(projectID); err != nil {
		return nil, err
	}
	resp, err := s.api.Do(ctx, apiclient.Request{Path: "/timeline/" + url.PathEscape(projectID)})
	if err != nil {
		return nil, err
	}
	var entries []TimelineEntry
	return entries, resp.Decode(&entries)
}

func validateProjectID(projectID string) error {
	if err := validation.Validate(projectID, validation.Required); err != nil {
		return fmt.Errorf("project id: %w", err)
	}
	return nil
}

func validateDocumentRequest(projectID string, format Format) error {
	if err := validateProjectID(projectID); err != nil {
		return err
	}
	return format.Validate()
}
