// Package content loads the editorial copy rendered inside the personalised header.
package content

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/personalisation-service/internal/domain"
)

// Link is a single audience navigation entry.
type Link struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// Audience is the copy for one audience section.
type Audience struct {
	Heading string `yaml:"heading"`
	Links   []Link `yaml:"links"`
}

// Banner is the consent banner copy.
type Banner struct {
	Heading     string `yaml:"heading"`
	Body        string `yaml:"body"`
	AcceptLabel string `yaml:"accept_label"`
	RejectLabel string `yaml:"reject_label"`
}

// Controls labels the persona toggles.
type Controls struct {
	StudentLabel string `yaml:"student_label"`
	FacultyLabel string `yaml:"faculty_label"`
	ClearLabel   string `yaml:"clear_label"`
}

// Header is the whole content file.
type Header struct {
	// Banner is optional; without it the header renders no consent banner.
	Banner    *Banner                     `yaml:"banner"`
	Controls  Controls                    `yaml:"controls"`
	Audiences map[domain.Persona]Audience `yaml:"audiences"`
}

// Load reads and validates a header content file.
func Load(path string) (*Header, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates header content.
func Parse(raw []byte) (*Header, error) {
	var header Header
	if err := yaml.Unmarshal(raw, &header); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	header.applyDefaults()
	if err := header.validate(); err != nil {
		return nil, err
	}
	return &header, nil
}

// Audience returns the copy for a persona's section.
func (h *Header) Audience(persona domain.Persona) Audience {
	if persona.IsExternal() {
		persona = domain.PersonaExternal
	}
	return h.Audiences[persona]
}

func (h *Header) applyDefaults() {
	if h.Controls.StudentLabel == "" {
		h.Controls.StudentLabel = "Students"
	}
	if h.Controls.FacultyLabel == "" {
		h.Controls.FacultyLabel = "Faculty & staff"
	}
	if h.Controls.ClearLabel == "" {
		h.Controls.ClearLabel = "Clear preferences"
	}
	if h.Banner != nil {
		if h.Banner.AcceptLabel == "" {
			h.Banner.AcceptLabel = "Accept"
		}
		if h.Banner.RejectLabel == "" {
			h.Banner.RejectLabel = "Reject"
		}
	}
}

func (h *Header) validate() error {
	var errs []error
	for audience := range h.Audiences {
		if domain.ParsePersona(string(audience)) != audience {
			errs = append(errs, fmt.Errorf("unknown audience %q", audience))
		}
	}
	for _, persona := range domain.Personas {
		section, ok := h.Audiences[persona]
		if !ok {
			errs = append(errs, fmt.Errorf("missing audience %q", persona))
			continue
		}
		for i, link := range section.Links {
			if strings.TrimSpace(link.Title) == "" || strings.TrimSpace(link.URL) == "" {
				errs = append(errs, fmt.Errorf("audience %q link %d needs title and url", persona, i))
			}
		}
	}
	return errors.Join(errs...)
}
