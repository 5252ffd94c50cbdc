// Package profiles loads named request presets (YAML/JSON) for the connector.
package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samvad-hq/site-connector/pkg/connector"
	"gopkg.in/yaml.v3"
)

// Profile is a reusable request preset. Unset fields fall back to the connector defaults.
type Profile struct {
	ID           string            `json:"id" yaml:"id"`
	Description  string            `json:"description" yaml:"description"`
	URL          string            `json:"url" yaml:"url"`
	Method       *string           `json:"method,omitempty" yaml:"method,omitempty"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body         *string           `json:"body,omitempty" yaml:"body,omitempty"`
	TimeoutMs    *int              `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	IgnoreErrors *bool             `json:"ignore_errors,omitempty" yaml:"ignore_errors,omitempty"`
}

// Partial converts the preset into connector overrides.
func (p Profile) Partial() connector.PartialConfig {
	out := connector.PartialConfig{
		Method:        p.Method,
		TimeoutMillis: p.TimeoutMs,
		IgnoreErrors:  p.IgnoreErrors,
	}
	if p.Headers != nil {
		out.Headers = make(map[string]string, len(p.Headers))
		for k, v := range p.Headers {
			out.Headers[k] = v
		}
	}
	if p.Body != nil {
		out.Body = []byte(*p.Body)
	}
	return out
}

type file struct {
	Profiles []Profile `json:"profiles" yaml:"profiles"`
}

// Registry is an immutable, validated set of profiles.
type Registry struct {
	profiles []Profile
	idx      map[string]Profile
}

// All returns the profiles sorted by id.
func (r *Registry) All() []Profile {
	if r == nil || len(r.profiles) == 0 {
		return nil
	}
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// ByID returns the profile for the given id, if loaded.
func (r *Registry) ByID(id string) (Profile, bool) {
	id = strings.TrimSpace(id)
	if r == nil || id == "" {
		return Profile{}, false
	}
	p, ok := r.idx[id]
	return p, ok
}

// LoadRegistry loads profiles from a YAML or JSON file.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("profiles file path is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles file: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	return Parse(raw, filepath.Ext(path))
}

// Parse decodes and validates profiles. ext selects the format (".yaml", ".yml", ".json");
// an empty ext tries each format in turn.
func Parse(data []byte, ext string) (*Registry, error) {
	doc, err := parseFile(data, ext)
	if err != nil {
		return nil, err
	}
	if len(doc.Profiles) == 0 {
		return nil, errors.New("profiles file contains no profiles entries")
	}

	reg := &Registry{idx: make(map[string]Profile, len(doc.Profiles))}
	for i := range doc.Profiles {
		p := sanitizeProfile(doc.Profiles[i])
		if err := validateProfile(p); err != nil {
			return nil, fmt.Errorf("profile[%d]: %w", i, err)
		}
		if _, exists := reg.idx[p.ID]; exists {
			return nil, fmt.Errorf("duplicate profile id %q", p.ID)
		}
		reg.idx[p.ID] = p
		reg.profiles = append(reg.profiles, p)
	}
	sort.Slice(reg.profiles, func(i, j int) bool { return reg.profiles[i].ID < reg.profiles[j].ID })

	return reg, nil
}

type unmarshalFn func([]byte, any) error

func parseFile(data []byte, ext string) (file, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var doc file
		if err := d.fn(data, &doc); err != nil {
			lastErr = fmt.Errorf("decode %s profiles: %w", d.name, err)
			continue
		}
		return doc, nil
	}
	if lastErr != nil {
		return file{}, lastErr
	}
	return file{}, errors.New("profiles file format not recognized (expected YAML or JSON)")
}

func sanitizeProfile(p Profile) Profile {
	p.ID = strings.TrimSpace(p.ID)
	p.Description = strings.TrimSpace(p.Description)
	p.URL = strings.TrimSpace(p.URL)
	if p.Method != nil {
		m := strings.ToUpper(strings.TrimSpace(*p.Method))
		p.Method = &m
	}
	return p
}

func validateProfile(p Profile) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.URL != "" {
		u, err := url.Parse(p.URL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("url for profile %q must be an absolute URI", p.ID)
		}
	}
	if p.Method != nil && *p.Method == "" {
		return fmt.Errorf("method for profile %q must not be empty", p.ID)
	}
	if p.TimeoutMs != nil && *p.TimeoutMs <= 0 {
		return fmt.Errorf("timeout_ms for profile %q must be positive", p.ID)
	}
	return nil
}
