package pane

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/byxorna/orderpane/pkg/config"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
)

// Config is everything a pane knows about its document type. The extractor
// funcs are optional except Label.
type Config struct {
	Type       string
	Title      string
	Projection string

	Label      func(v1.Record) string
	SearchText func(v1.Record) string
	ImageURL   func(v1.Record) string
	EditPath   func(v1.Record) string
}

// FromSettings builds a pane Config from its yaml settings.
func FromSettings(p config.Pane) (Config, error) {
	c := Config{
		Type:       p.Type,
		Title:      p.Title,
		Projection: p.Projection,
		Label:      fieldLabel(p.LabelField),
	}

	if len(p.SearchFields) > 0 {
		fields := p.SearchFields
		c.SearchText = func(r v1.Record) string {
			parts := make([]string, 0, len(fields))
			for _, f := range fields {
				if f == p.LabelField {
					parts = append(parts, c.Label(r))
					continue
				}
				if s := strings.TrimSpace(r.String(f)); s != "" {
					parts = append(parts, s)
				}
			}
			return strings.TrimSpace(strings.Join(parts, " "))
		}
	}

	if p.ImageField != "" {
		field := p.ImageField
		c.ImageURL = func(r v1.Record) string { return r.String(field) }
	}

	if p.EditPath != "" {
		tmpl, err := template.New(p.Type).Option("missingkey=zero").Parse(p.EditPath)
		if err != nil {
			return c, fmt.Errorf("pane %s: bad editPath: %w", p.Type, err)
		}
		c.EditPath = func(r v1.Record) string {
			var b bytes.Buffer
			if err := tmpl.Execute(&b, pathData{Record: r, BaseID: r.BaseID()}); err != nil {
				return defaultEditPath(r)
			}
			return b.String()
		}
	}

	return c, nil
}

type pathData struct {
	v1.Record
	BaseID string
}

// fieldLabel trims the named field and falls back to the document id.
func fieldLabel(field string) func(v1.Record) string {
	return func(r v1.Record) string {
		if field != "" {
			if s := strings.TrimSpace(r.String(field)); s != "" {
				return s
			}
		}
		return r.ID
	}
}

func (c Config) label(r v1.Record) string {
	if c.Label == nil {
		return r.ID
	}
	return c.Label(r)
}

func (c Config) searchText(r v1.Record) string {
	if c.SearchText != nil {
		return c.SearchText(r)
	}
	return c.label(r)
}

func (c Config) imageURL(r v1.Record) string {
	if c.ImageURL == nil {
		return ""
	}
	return c.ImageURL(r)
}

func (c Config) editPath(r v1.Record) string {
	if c.EditPath != nil {
		return c.EditPath(r)
	}
	return defaultEditPath(r)
}

func defaultEditPath(r v1.Record) string {
	return fmt.Sprintf("/structure/%s;%s", r.Type, r.BaseID())
}

func (c Config) reorderTag() string {
	return fmt.Sprintf("orderable-pane.%s.reorder", c.Type)
}
