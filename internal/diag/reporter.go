package diag

// Reporter is the minimal contract for receiving diagnostics from the phases.
// Implementations: BagReporter (collects into a Bag), NopReporter,
// DedupReporter (suppresses repeats).
type Reporter interface {
	Report(code Code, sev Severity, primary Ref, msg string, notes []Note)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Report(Code, Severity, Ref, string, []Note) {}

// BagReporter appends diagnostics to a Bag.
type BagReporter struct {
	Bag *Bag
}

func (r BagReporter) Report(code Code, sev Severity, primary Ref, msg string, notes []Note) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Primary:  primary,
		Notes:    notes,
	})
}
