package cmd

import (
	"github.com/byxorna/orderpane/pkg/pane"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
	"github.com/sahilm/fuzzy"
)

// labels adapts a record list to fuzzy.Source.
type labels struct {
	c       *pane.Controller
	records []v1.Record
}

func (l labels) String(i int) string { return l.c.Label(l.records[i]) }
func (l labels) Len() int            { return len(l.records) }

// fuzzyLabels ranks records by how well their label matches query, best
// first.
func fuzzyLabels(c *pane.Controller, records []v1.Record, query string) fuzzy.Matches {
	return fuzzy.FindFrom(query, labels{c: c, records: records})
}
