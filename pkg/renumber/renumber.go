// Package renumber assigns fresh, collision-free IDs to the records of a
// run and writes back-references to the original findings.
//
// Merged records come first in acceptance order and take two IDs each, one
// per output collection. Left-only and then right-only records follow,
// each ordered by original ID. The same records always get the same IDs.
package renumber

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/agentstation/ghostmerge/pkg/constants"
	"github.com/agentstation/ghostmerge/pkg/differ"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
)

// Reason markers written to extra_fields.merge_reason.
const (
	ReasonUnchanged = "unchanged"
	ReasonUpdated   = "updated"
)

// Assignment records the output IDs given to one record. An ID is zero
// when the record is absent from that collection.
type Assignment struct {
	Record  *findings.Record
	LeftID  findings.ID
	RightID findings.ID
}

// Output holds the two renumbered collections.
type Output struct {
	Left        []findings.Finding
	Right       []findings.Finding
	Index       map[findings.ID]*findings.Record // output ID -> record, both sides
	Assignments []Assignment
}

// Lookup returns the record behind an output ID.
func (o *Output) Lookup(id findings.ID) (*findings.Record, bool) {
	rec, ok := o.Index[id]
	return rec, ok
}

// Renumber assigns IDs from start. Records are not modified. It panics
// with an *errors.InvariantError if an ID is handed out twice.
func Renumber(records []*findings.Record, start int) *Output {
	var merged, leftOnly, rightOnly []*findings.Record
	for _, rec := range records {
		switch rec.Origin {
		case findings.OriginMerged:
			merged = append(merged, rec)
		case findings.OriginLeftOnly:
			leftOnly = append(leftOnly, rec)
		case findings.OriginRightOnly:
			rightOnly = append(rightOnly, rec)
		default:
			panic(errors.NewInvariantError("renumber", fmt.Sprintf("record with unknown origin %q", rec.Origin)))
		}
	}
	slices.SortStableFunc(merged, func(a, b *findings.Record) int { return cmp.Compare(a.Sequence, b.Sequence) })
	slices.SortStableFunc(leftOnly, func(a, b *findings.Record) int { return a.Left.ID.Compare(b.Left.ID) })
	slices.SortStableFunc(rightOnly, func(a, b *findings.Record) int { return a.Right.ID.Compare(b.Right.ID) })

	n := &numberer{
		next: start,
		out:  &Output{Index: make(map[findings.ID]*findings.Record, len(records)*2)},
		diff: differ.New(differ.WithIgnoredFields(backReferenceFields()...)),
	}
	for _, rec := range merged {
		leftID, rightID := n.take(rec), n.take(rec)
		n.out.Left = append(n.out.Left, n.build(rec, findings.Left, leftID, rightID))
		n.out.Right = append(n.out.Right, n.build(rec, findings.Right, rightID, leftID))
		n.out.Assignments = append(n.out.Assignments, Assignment{Record: rec, LeftID: leftID, RightID: rightID})
	}
	for _, rec := range leftOnly {
		id := n.take(rec)
		n.out.Left = append(n.out.Left, n.build(rec, findings.Left, id, ""))
		n.out.Assignments = append(n.out.Assignments, Assignment{Record: rec, LeftID: id})
	}
	for _, rec := range rightOnly {
		id := n.take(rec)
		n.out.Right = append(n.out.Right, n.build(rec, findings.Right, id, ""))
		n.out.Assignments = append(n.out.Assignments, Assignment{Record: rec, RightID: id})
	}
	return n.out
}

// Default renumbers from the standard start ID.
func Default(records []*findings.Record) *Output {
	return Renumber(records, constants.DefaultIDStart)
}

type numberer struct {
	next int
	out  *Output
	diff differ.Differ
}

func (n *numberer) take(rec *findings.Record) findings.ID {
	id := findings.IntID(n.next)
	n.next++
	if _, dup := n.out.Index[id]; dup {
		panic(errors.NewInvariantError("renumber", "duplicate output id "+id.String()))
	}
	n.out.Index[id] = rec
	return id
}

// build clones the record's finding for one collection and writes the
// back-references.
func (n *numberer) build(rec *findings.Record, side findings.Side, id, paired findings.ID) findings.Finding {
	f := rec.Finding.Clone()
	f.ID = id
	if f.ExtraFields == nil {
		f.ExtraFields = make(map[string]any)
	}

	reason := ReasonUpdated
	if orig := rec.Original(side); orig != nil && len(n.diff.Diff(*orig, f)) == 0 {
		reason = ReasonUnchanged
	}

	if rec.Left != nil {
		f.ExtraFields[constants.ExtraSourceIDLeft] = rec.Left.ID.Value()
	} else {
		delete(f.ExtraFields, constants.ExtraSourceIDLeft)
	}
	if rec.Right != nil {
		f.ExtraFields[constants.ExtraSourceIDRight] = rec.Right.ID.Value()
	} else {
		delete(f.ExtraFields, constants.ExtraSourceIDRight)
	}
	if paired.IsZero() {
		delete(f.ExtraFields, constants.ExtraPairedOutputID)
	} else {
		f.ExtraFields[constants.ExtraPairedOutputID] = paired.Value()
	}
	f.ExtraFields[constants.ExtraMergeOrigin] = string(rec.Origin)
	f.ExtraFields[constants.ExtraMergeReason] = reason
	return f
}

// backReferenceFields are the extra fields renumbering owns.
func backReferenceFields() []string {
	return []string{
		findings.ExtraField(constants.ExtraSourceIDLeft),
		findings.ExtraField(constants.ExtraSourceIDRight),
		findings.ExtraField(constants.ExtraMergeOrigin),
		findings.ExtraField(constants.ExtraPairedOutputID),
		findings.ExtraField(constants.ExtraMergeReason),
	}
}
