package diag

// DedupReporter wraps another Reporter and suppresses diagnostics whose
// message text has already been seen. The host surfaces warnings once per
// distinct message, not once per asset, so the key is the text alone.
type DedupReporter struct {
	next Reporter
	seen map[string]struct{}
}

// NewDedupReporter returns a Reporter that filters out duplicates while
// forwarding unique diagnostics to the provided reporter.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next: next,
		seen: make(map[string]struct{}),
	}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary Ref, msg string, notes []Note) {
	if r == nil {
		return
	}
	if _, ok := r.seen[msg]; ok {
		return
	}
	r.seen[msg] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}
