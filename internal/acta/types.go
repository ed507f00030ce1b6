package acta

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Format is a generated document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

var ErrInvalidFormat = errors.New("format must be pdf or docx")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatDOCX:
		return f, nil
	case "word":
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

func (f Format) Validate() error {
	if f != FormatPDF && f != FormatDOCX {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, string(f))
	}
	return nil
}

func (f Format) String() string { return string(f) }

// Project is a row of the project list. The backend is not consistent about
// field names, so decoding accepts every spelling seen on the wire.
type Project struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	OwnerEmail string `json:"pm_email"`
	Status     string `json:"status,omitempty"`
	ActaStatus string `json:"acta_status,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

func (p *Project) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID             json.RawMessage `json:"id"`
		ProjectID      json.RawMessage `json:"project_id"`
		Name           string          `json:"name"`
		ProjectName    string          `json:"project_name"`
		PMEmail        string          `json:"pm_email"`
		PM             string          `json:"pm"`
		ProjectManager string          `json:"project_manager"`
		Status         string          `json:"status"`
		ProjectStatus  string          `json:"project_status"`
		ActaStatus     string          `json:"acta_status"`
		UpdatedAt      string          `json:"updated_at"`
		LastUpdated    string          `json:"last_updated"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Project{
		ID:         firstNonEmpty(idString(raw.ID), idString(raw.ProjectID)),
		Name:       firstNonEmpty(raw.Name, raw.ProjectName),
		OwnerEmail: firstNonEmpty(raw.PMEmail, raw.PM, raw.ProjectManager),
		Status:     firstNonEmpty(raw.Status, raw.ProjectStatus),
		ActaStatus: raw.ActaStatus,
		UpdatedAt:  firstNonEmpty(raw.UpdatedAt, raw.LastUpdated),
	}
	return nil
}

// idString accepts ids sent either as strings or as numbers.
func idString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

type Health struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (h Health) Healthy() bool {
	return strings.EqualFold(h.Status, "healthy") || strings.EqualFold(h.Status, "ok")
}

// Generation is the answer to a document generation trigger.
type Generation struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ProjectID  string `json:"project_id"`
	DocumentID string `json:"document_id,omitempty"`
	S3Location string `json:"s3_location,omitempty"`
	Bucket     string `json:"bucket,omitempty"`
	Key        string `json:"key,omitempty"`
}

type DocumentStatus struct {
	ProjectID    string `json:"project_id"`
	Format       Format `json:"format"`
	Available    bool   `json:"available"`
	LastModified string `json:"last_modified,omitempty"`
	Size         int64  `json:"size,omitempty"`
	Key          string `json:"s3_key,omitempty"`
}

type Approval struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// ProjectSummary keeps the known fields and every other field the backend
// returned in Extra.
type ProjectSummary struct {
	ProjectID      string         `json:"project_id"`
	ProjectName    string         `json:"project_name"`
	PM             string         `json:"pm,omitempty"`
	ProjectManager string         `json:"project_manager,omitempty"`
	Extra          map[string]any `json:"-"`
}

func (s *ProjectSummary) UnmarshalJSON(data []byte) error {
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	type plain ProjectSummary
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	*s = ProjectSummary(known)
	for _, k := range []string{"project_id", "project_name", "pm", "project_manager"} {
		delete(all, k)
	}
	if len(all) > 0 {
		s.Extra = all
	}
	return nil
}

// TimelineEntry is one milestone of a project timeline.
type TimelineEntry struct {
	Milestone  string `json:"hito"`
	Activities string `json:"actividades"`
	Progress   string `json:"desarrollo"`
	Date       string `json:"fecha"`
}
