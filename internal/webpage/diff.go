package webpage

import (
	"bytes"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
)

// Change is one inserted or removed run of body text.
type Change struct {
	Type ChangeType
	Text string
}

// DiffBodies lists what changed in head's body relative to base's, in body
// order. Unchanged text and whitespace-only edits are omitted.
func DiffBodies(base, head *Page) []Change {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(base.Body()), string(head.Body()), true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	changes := make([]Change, 0)
	for _, d := range diffs {
		var ct ChangeType
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			ct = ChangeAdded
		case diffmatchpatch.DiffDelete:
			ct = ChangeRemoved
		default:
			continue
		}
		if strings.TrimSpace(d.Text) == "" {
			continue
		}
		changes = append(changes, Change{Type: ct, Text: d.Text})
	}
	return changes
}

// Changed reports whether other's body differs byte-for-byte from p's.
func (p *Page) Changed(other *Page) bool {
	return !bytes.Equal(p.body, other.body)
}
