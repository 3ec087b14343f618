package vt

// Window is a half-open validity interval [Start, End).
// An absent Start defaults to transaction time at apply time; an absent End
// means "until further notice".
type Window struct {
	Start Time
	End   Time
}

// Valid reports whether the window is well-formed: when both bounds are
// present, Start must be strictly before End.
func (w Window) Valid() bool {
	if w.Start.Present() && w.End.Present() {
		return w.Start.Before(w.End)
	}
	return true
}

// Overlaps reports whether w and o share any instant.
//
// The apply-time default of an absent Start is unknown while a batch is
// being assembled, so for overlap purposes an absent Start is unbounded
// below and an absent End unbounded above. Adjacent windows, where one ends
// exactly where the other starts, do not overlap.
func (w Window) Overlaps(o Window) bool {
	return startsBeforeEnd(w.Start, o.End) && startsBeforeEnd(o.Start, w.End)
}

// startsBeforeEnd reports start < end with open-bound semantics.
func startsBeforeEnd(start, end Time) bool {
	if !start.Present() || !end.Present() {
		return true
	}
	return start.Before(end)
}

// CompareEnd orders two end bounds; an absent end is the greatest.
func CompareEnd(a, b Time) int {
	switch {
	case !a.Present() && !b.Present():
		return 0
	case !a.Present():
		return 1
	case !b.Present():
		return -1
	default:
		return a.Compare(b)
	}
}

// String renders the window as "[start, end)".
func (w Window) String() string {
	return "[" + w.Start.String() + ", " + w.End.String() + ")"
}
