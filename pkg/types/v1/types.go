package v1

import (
	"strings"

	"github.com/go-playground/validator"
)

const (
	// DraftPrefix marks the draft variant of a canonical document id
	DraftPrefix = "drafts."
	// RankField is the document field holding the manual order key
	RankField = "orderRank"
)

// Record is a single orderable document. Fields holds whatever the pane
// projection asked for; the ranking code never looks inside it.
type Record struct {
	ID           string         `yaml:"_id" json:"_id" validate:"required"`
	Type         string         `yaml:"_type" json:"_type" validate:"required"`
	Rank         string         `yaml:"orderRank,omitempty" json:"orderRank,omitempty"`
	HasPublished bool           `yaml:"-" json:"-"`
	Fields       map[string]any `yaml:"fields,omitempty" json:"-"`
}

// IsDraft reports whether the id carries the draft prefix.
func (r Record) IsDraft() bool { return IsDraftID(r.ID) }

// BaseID is the id of the published counterpart.
func (r Record) BaseID() string { return BaseID(r.ID) }

// Ranked is false for records that never got an order key.
func (r Record) Ranked() bool { return r.Rank != "" }

// String returns the field as a string, or "" when absent or not a string.
func (r Record) String(field string) string {
	if r.Fields == nil {
		return ""
	}
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		// slugs and similar objects are stored as {current: "..."}
		if c, ok := t["current"].(string); ok {
			return c
		}
	}
	return ""
}

func (r *Record) Validate() error {
	validate := validator.New()
	return validate.Struct(*r)
}

func IsDraftID(id string) bool { return strings.HasPrefix(id, DraftPrefix) }

func BaseID(id string) string { return strings.TrimPrefix(id, DraftPrefix) }

type SyncStatus string

const (
	StatusUninitialized SyncStatus = "uninitialized"
	StatusOK            SyncStatus = "ok"
	StatusSynchronizing SyncStatus = "synchronizing"
	StatusError         SyncStatus = "error"
)

// ByID sorts records by id.
type ByID []Record

func (p ByID) Len() int           { return len(p) }
func (p ByID) Less(i, j int) bool { return p[i].ID < p[j].ID }
func (p ByID) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

// Patch sets fields on a single target document.
type Patch struct {
	TargetID string            `json:"id"`
	Set      map[string]string `json:"set"`
}
