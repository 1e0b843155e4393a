package diag

// Ref points a diagnostic at the artifact it concerns. Either field may
// be empty: a graph-level diagnostic has only a chunk id, a tag-level
// diagnostic only an asset key.
type Ref struct {
	Asset string
	Chunk string
}

func (r Ref) String() string {
	switch {
	case r.Asset != "" && r.Chunk != "":
		return r.Asset + " (chunk " + r.Chunk + ")"
	case r.Asset != "":
		return r.Asset
	case r.Chunk != "":
		return "chunk " + r.Chunk
	}
	return "<build>"
}

type Note struct {
	Ref Ref
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Ref
	Notes    []Note
}
