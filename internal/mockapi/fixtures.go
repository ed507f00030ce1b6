package mockapi

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/ikusi/acta-ui/internal/apiclient"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

const nowPlaceholder = "{{now}}"

// Fixture is one canned answer. Path may contain {name} segments; their
// values, and the request's query parameters, are substituted wherever
// {name} appears in Body, Location or Headers.
type Fixture struct {
	Method      string            `yaml:"method"`
	Path        string            `yaml:"path"`
	Status      int               `yaml:"status"`
	ContentType string            `yaml:"content_type"`
	Headers     map[string]string `yaml:"headers"`
	Location    string            `yaml:"location"`
	Body        any               `yaml:"body"`
}

func (f Fixture) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Method, validation.Required,
			validation.In(http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead)),
		validation.Field(&f.Path, validation.Required, validation.By(startsWithSlash)),
		validation.Field(&f.Status, validation.Min(100), validation.Max(599)),
		validation.Field(&f.Location, validation.When(f.Status >= 300 && f.Status < 400, validation.Required)),
	)
}

func startsWithSlash(v any) error {
	if s, _ := v.(string); !strings.HasPrefix(s, "/") {
		return fmt.Errorf("must start with /")
	}
	return nil
}

// Templated reports whether the fixture path binds parameters.
func (f Fixture) Templated() bool {
	return apiclient.HasPlaceholders(f.Path)
}

// Fixtures is an immutable set of canned answers.
type Fixtures struct {
	exact     []Fixture
	templated []Fixture
}

type fixtureFile struct {
	Routes []Fixture `yaml:"routes"`
}

// Default returns the embedded fixture set.
func Default() (*Fixtures, error) {
	return Parse(defaultFixtures)
}

// LoadFile reads a fixture set from path, or the embedded set when path is empty.
func LoadFile(path string) (*Fixtures, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(data)
}

func Load(r io.Reader) (*Fixtures, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixtures, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	fs := &Fixtures{}
	seen := make(map[string]bool, len(file.Routes))
	for i, fx := range file.Routes {
		fx.Method = strings.ToUpper(fx.Method)
		if fx.Status == 0 {
			fx.Status = http.StatusOK
		}
		if err := fx.Validate(); err != nil {
			return nil, fmt.Errorf("fixture %d (%s %s): %w", i, fx.Method, fx.Path, err)
		}
		key := fx.Method + " " + fx.Path
		if seen[key] {
			return nil, fmt.Errorf("fixture %d: duplicate route %s", i, key)
		}
		seen[key] = true

		if fx.Templated() {
			fs.templated = append(fs.templated, fx)
		} else {
			fs.exact = append(fs.exact, fx)
		}
	}
	return fs, nil
}

// All returns every fixture, exact routes first.
func (fs *Fixtures) All() []Fixture {
	out := make([]Fixture, 0, len(fs.exact)+len(fs.templated))
	out = append(out, fs.exact...)
	return append(out, fs.templated...)
}

// Match finds the fixture for method and path (query excluded). Exact
// routes are tried before templates, each in file order.
func (fs *Fixtures) Match(method, path string) (Fixture, map[string]string, bool) {
	method = strings.ToUpper(method)
	for _, group := range [][]Fixture{fs.exact, fs.templated} {
		for _, fx := range group {
			if fx.Method != method {
				continue
			}
			if params, ok := apiclient.MatchPattern(fx.Path, path); ok {
				return fx, params, true
			}
		}
	}
	return Fixture{}, nil, false
}

// Rendered is a fixture expanded for one request.
type Rendered struct {
	Status int
	Header http.Header
	Body   []byte
}

// Render expands the fixture for params at time now.
func (f Fixture) Render(params map[string]string, now time.Time) (Rendered, error) {
	contentType := f.ContentType
	if contentType == "" && f.Body != nil {
		contentType = "application/json"
	}

	var body []byte
	switch {
	case f.Body == nil:
	case isJSON(contentType):
		data, err := json.Marshal(f.Body)
		if err != nil {
			return Rendered{}, fmt.Errorf("encode fixture body for %s %s: %w", f.Method, f.Path, err)
		}
		body = []byte(expand(string(data), params, now, jsonEscape))
	default:
		body = []byte(expand(fmt.Sprint(f.Body), params, now, nil))
	}

	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	for k, v := range f.Headers {
		header.Set(k, expand(v, params, now, nil))
	}
	if f.Location != "" {
		header.Set("Location", expand(f.Location, params, now, nil))
	}

	return Rendered{Status: f.Status, Header: header, Body: body}, nil
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json") || strings.Contains(contentType, "+json")
}

func expand(s string, params map[string]string, now time.Time, escape func(string) string) string {
	s = strings.ReplaceAll(s, nowPlaceholder, now.UTC().Format(time.RFC3339))
	if len(params) == 0 {
		return s
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		if escape != nil {
			v = escape(v)
		}
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// jsonEscape makes v safe inside a JSON string literal.
func jsonEscape(v string) string {
	b, _ := json.Marshal(v)
	return string(b[1 : len(b)-1])
}
