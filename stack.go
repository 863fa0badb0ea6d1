package rewind

// entryKind discriminates history buffer entries.
type entryKind uint8

const (
	entryOperation entryKind = iota
	entryBegin
	entryEnd
)

// groupMeta is the metadata shared by a group's begin and end markers.
// Edits through either marker are visible through both.
type groupMeta struct {
	name        string
	named       bool // name was set explicitly, never defaulted
	discardable bool
}

// newGroupMeta returns metadata for a freshly opened group. A group starts
// discardable and loses the flag as soon as any member declines it, so an
// empty group is vacuously discardable.
func newGroupMeta() *groupMeta {
	return &groupMeta{discardable: true}
}

func (gm *groupMeta) copy() *groupMeta {
	c := *gm
	return &c
}

// entry is one slot in the linear history buffer.
type entry struct {
	kind entryKind
	op   *operation // entryOperation
	meta *groupMeta // entryBegin, entryEnd: shared with the paired marker

	// peer links paired markers by buffer index. For a begin marker it is
	// the index of the matching end, -1 until the group closes; for an end
	// marker it is the index of the matching begin.
	peer int
}

// batch is the unit popped for one undo or redo call: either a lone
// operation or the full contents of a bracketed group, flattened into
// recorded order.
type batch struct {
	ops  []*operation
	meta *groupMeta // nil for a lone operation
}

func (b *batch) name() string {
	if b.meta != nil {
		return b.meta.name
	}
	if len(b.ops) == 1 {
		return b.ops[0].name
	}
	return ""
}

// histStack is the linear buffer of operation records and group markers,
// together with the open-group bookkeeping and the retention limit.
//
// The undo side of a Manager uses the tail: groups are appended and the
// most recent closed group pops from the back. The redo side uses the
// head: inverse batches are pushed at the front and popped from the front,
// which keeps redo in last-undone-first order while the head of the buffer
// remains the oldest surviving entry.
type histStack struct {
	entries []entry
	open    []int // indices of unresolved begin markers, outermost first
	limit   int   // max retained top-level units; 0 = unlimited
}

func (s *histStack) size() int      { return len(s.entries) }
func (s *histStack) openDepth() int { return len(s.open) }

// markBegin opens a group by pushing a begin marker. It cannot fail.
func (s *histStack) markBegin() *groupMeta {
	meta := newGroupMeta()
	s.open = append(s.open, len(s.entries))
	s.entries = append(s.entries, entry{kind: entryBegin, meta: meta, peer: -1})
	return meta
}

// markEnd closes the innermost open group: resolves the begin marker's
// peer index, appends the end marker, and, when this closes the last open
// group, enforces the retention limit.
func (s *histStack) markEnd() error {
	if len(s.open) == 0 {
		return errUnbalancedGroup
	}
	beginIdx := s.open[len(s.open)-1]
	s.open = s.open[:len(s.open)-1]
	meta := s.entries[beginIdx].meta

	// A group defaults to the name of its last operation unless it was
	// named explicitly while open.
	if !meta.named {
		for i := len(s.entries) - 1; i > beginIdx; i-- {
			if s.entries[i].kind == entryOperation {
				if n := s.entries[i].op.name; n != "" {
					meta.name = n
				}
				break
			}
		}
	}

	endIdx := len(s.entries)
	s.entries[beginIdx].peer = endIdx
	s.entries = append(s.entries, entry{kind: entryEnd, meta: meta, peer: beginIdx})

	if len(s.open) == 0 {
		s.enforceLimit()
	}
	return nil
}

// addOperation appends op to the innermost open group.
func (s *histStack) addOperation(op *operation) error {
	if len(s.open) == 0 {
		return errNoOpenGroup
	}
	s.entries = append(s.entries, entry{kind: entryOperation, op: op})
	return nil
}

// collect flattens the operation records in entries[from:to] into a batch,
// in recorded order. Nested markers inside the range are dropped: the
// range replays as one unit regardless of inner structure.
func (s *histStack) collect(from, to int) *batch {
	b := &batch{}
	for i := from; i < to; i++ {
		if s.entries[i].kind == entryOperation {
			b.ops = append(b.ops, s.entries[i].op)
		}
	}
	return b
}

// popBack removes and returns the most recent closed group, identified by
// the end marker at the tail. A bare trailing operation outside any group
// pops as a lone batch; a trailing entry inside an open group means there
// is no closed group to pop.
func (s *histStack) popBack() (*batch, error) {
	if len(s.entries) == 0 {
		return nil, ErrNothingToUndo
	}
	tail := s.entries[len(s.entries)-1]
	switch tail.kind {
	case entryEnd:
		begin := tail.peer
		b := s.collect(begin+1, len(s.entries)-1)
		b.meta = tail.meta
		s.entries = s.entries[:begin]
		return b, nil
	case entryOperation:
		if len(s.open) > 0 {
			return nil, errGroupStillOpen
		}
		op := tail.op
		s.entries = s.entries[:len(s.entries)-1]
		return &batch{ops: []*operation{op}}, nil
	default: // an open, empty group ends the buffer
		return nil, errGroupStillOpen
	}
}

// popFront removes and returns the group or lone operation at the head.
func (s *histStack) popFront() (*batch, error) {
	if len(s.entries) == 0 {
		return nil, ErrNothingToRedo
	}
	head := s.entries[0]
	switch head.kind {
	case entryBegin:
		end := head.peer
		if end < 0 {
			return nil, errGroupStillOpen
		}
		b := s.collect(1, end)
		b.meta = head.meta
		s.dropFront(end + 1)
		return b, nil
	case entryOperation:
		op := head.op
		s.dropFront(1)
		return &batch{ops: []*operation{op}}, nil
	default:
		// An end marker can never be first: its begin precedes it.
		return nil, errGroupStillOpen
	}
}

// pushFront prepends a batch. Single-operation batches stay lone entries;
// anything larger is bracketed by a marker pair carrying the batch's
// metadata. Every surviving index is rebased by the inserted length.
func (s *histStack) pushFront(b *batch) {
	if len(b.ops) == 0 {
		return
	}
	var pre []entry
	if len(b.ops) == 1 {
		pre = []entry{{kind: entryOperation, op: b.ops[0]}}
	} else {
		meta := b.meta
		if meta == nil {
			meta = newGroupMeta()
		}
		pre = make([]entry, 0, len(b.ops)+2)
		pre = append(pre, entry{kind: entryBegin, meta: meta, peer: len(b.ops) + 1})
		for _, op := range b.ops {
			pre = append(pre, entry{kind: entryOperation, op: op})
		}
		pre = append(pre, entry{kind: entryEnd, meta: meta, peer: 0})
	}
	s.rebase(-len(pre))
	s.entries = append(pre, s.entries...)
}

// dropFront removes the first n entries and rebases surviving indices.
func (s *histStack) dropFront(n int) {
	s.entries = append(s.entries[:0], s.entries[n:]...)
	s.rebase(n)
}

// rebase shifts every stored buffer index down by n (up for negative n).
func (s *histStack) rebase(n int) {
	for i := range s.entries {
		if s.entries[i].kind != entryOperation && s.entries[i].peer >= 0 {
			s.entries[i].peer -= n
		}
	}
	for i := range s.open {
		s.open[i] -= n
	}
}

// enforceLimit drops the oldest top-level units until at most limit
// remain. A unit is a bracketed top-level group or a lone entry. Runs as a
// single compaction at top-level group closure, not on every push.
func (s *histStack) enforceLimit() {
	if s.limit <= 0 {
		return
	}
	var units []int // start index of each top-level unit, oldest first
	i := 0
	for i < len(s.entries) {
		units = append(units, i)
		e := s.entries[i]
		if e.kind == entryBegin {
			if e.peer < 0 {
				break // everything from an open group onward stays
			}
			i = e.peer + 1
		} else {
			i++
		}
	}
	excess := len(units) - s.limit
	if excess <= 0 {
		return
	}
	s.dropFront(units[excess])
}

// removeAll removes every operation record whose target key equals key,
// then collapses any closed begin/end pair left empty by the removal.
// Open groups stay open even when emptied.
func (s *histStack) removeAll(key any) {
	changed := false
	kept := make([]entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.kind == entryOperation && e.op.target != nil && e.op.target.Key() == key {
			changed = true
			continue
		}
		kept = append(kept, e)
	}
	if !changed {
		return
	}
	for {
		collapsed := false
		out := kept[:0]
		for i := 0; i < len(kept); i++ {
			if i+1 < len(kept) &&
				kept[i].kind == entryBegin && kept[i].peer >= 0 &&
				kept[i+1].kind == entryEnd && kept[i+1].meta == kept[i].meta {
				i++
				collapsed = true
				continue
			}
			out = append(out, kept[i])
		}
		kept = out
		if !collapsed {
			break
		}
	}
	s.entries = kept
	s.reindex()
}

// reindex recomputes peer links and the open-group list from scratch by
// pairing markers positionally. Used after structural edits that shift
// arbitrary entries.
func (s *histStack) reindex() {
	var begins []int
	s.open = s.open[:0]
	for i := range s.entries {
		switch s.entries[i].kind {
		case entryBegin:
			s.entries[i].peer = -1
			begins = append(begins, i)
		case entryEnd:
			b := begins[len(begins)-1]
			begins = begins[:len(begins)-1]
			s.entries[b].peer = i
			s.entries[i].peer = b
		}
	}
	s.open = append(s.open, begins...)
}

// clear empties the buffer, discarding open groups as well.
func (s *histStack) clear() {
	s.entries = nil
	s.open = nil
}

// setName renames the tail entry: the most recent operation record, or a
// group's shared metadata when the tail is a marker.
func (s *histStack) setName(name string) error {
	if len(s.entries) == 0 {
		return errNoOpenGroup
	}
	tail := &s.entries[len(s.entries)-1]
	if tail.kind == entryOperation {
		tail.op.name = name
		return nil
	}
	tail.meta.name = name
	tail.meta.named = true
	return nil
}

// setDiscardable flags the tail entry and intersects the innermost open
// group's flag with it: a group is discardable only if every contained
// operation marked itself discardable.
func (s *histStack) setDiscardable(flag bool) error {
	if len(s.entries) == 0 {
		return errNoOpenGroup
	}
	tail := &s.entries[len(s.entries)-1]
	if tail.kind == entryOperation {
		tail.op.discardable = flag
	} else {
		tail.meta.discardable = tail.meta.discardable && flag
	}
	if len(s.open) > 0 {
		meta := s.entries[s.open[len(s.open)-1]].meta
		meta.discardable = meta.discardable && flag
	}
	return nil
}

// rangeDiscardable reports whether meta and every operation record in
// entries[from:to] are discardable.
func (s *histStack) rangeDiscardable(meta *groupMeta, from, to int) bool {
	if !meta.discardable {
		return false
	}
	for i := from; i < to; i++ {
		if s.entries[i].kind == entryOperation && !s.entries[i].op.discardable {
			return false
		}
	}
	return true
}

// openGroupDiscardable reports the discardability of the innermost open
// group. ok is false when no group is open.
func (s *histStack) openGroupDiscardable() (disc, ok bool) {
	if len(s.open) == 0 {
		return false, false
	}
	begin := s.open[len(s.open)-1]
	return s.rangeDiscardable(s.entries[begin].meta, begin+1, len(s.entries)), true
}

// backName returns the display name of the unit a tail pop would return.
func (s *histStack) backName() string {
	if len(s.entries) == 0 {
		return ""
	}
	tail := s.entries[len(s.entries)-1]
	if tail.kind == entryOperation {
		return tail.op.name
	}
	return tail.meta.name
}

// backDiscardable reports whether the unit at the tail may be silently
// dropped.
func (s *histStack) backDiscardable() bool {
	if len(s.entries) == 0 {
		return false
	}
	tail := s.entries[len(s.entries)-1]
	switch tail.kind {
	case entryOperation:
		return tail.op.discardable
	case entryEnd:
		return s.rangeDiscardable(tail.meta, tail.peer+1, len(s.entries)-1)
	default:
		return tail.meta.discardable
	}
}

// frontName returns the display name of the unit a head pop would return.
func (s *histStack) frontName() string {
	if len(s.entries) == 0 {
		return ""
	}
	head := s.entries[0]
	if head.kind == entryOperation {
		return head.op.name
	}
	return head.meta.name
}

// frontDiscardable reports whether the unit at the head may be silently
// dropped.
func (s *histStack) frontDiscardable() bool {
	if len(s.entries) == 0 {
		return false
	}
	head := s.entries[0]
	switch head.kind {
	case entryOperation:
		return head.op.discardable
	case entryBegin:
		if head.peer < 0 {
			return head.meta.discardable
		}
		return s.rangeDiscardable(head.meta, 1, head.peer)
	default:
		return head.meta.discardable
	}
}
