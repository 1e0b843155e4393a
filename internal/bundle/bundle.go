// Package bundle holds a snapshot of the host bundler's output: chunks,
// assets with their byte content, the HTML tags to annotate and the
// output configuration. The snapshot is an explicit arena keyed by
// stable identifiers; it is built once per build and never holds live
// references into the host's internal model.
package bundle

// Asset is one named output file. Content is mutable until the build
// finalizes: placeholder replacement rewrites it in place.
type Asset struct {
	Name    string
	Content []byte

	// Integrity collects this build's content fingerprints for the
	// asset. Appended to, never overwritten: an asset may already carry
	// a fingerprint from an earlier pass.
	Integrity []string

	// Dirty marks content rewritten since the snapshot was taken.
	Dirty bool
}

// Chunk is one unit of the bundler's dependency graph. Children are the
// chunk ids this chunk may load at runtime; cycles are legal.
type Chunk struct {
	ID       string   `json:"id"`
	Files    []string `json:"files"`
	Children []string `json:"children"`
}

// Tag is one HTML reference tag produced by the host's tag generator.
type Tag struct {
	Element    string            `json:"element"`
	Src        string            `json:"src"`
	Attributes map[string]string `json:"attributes"`
}

// OutputConfig mirrors the fields of the host's output configuration
// this system reads.
type OutputConfig struct {
	// Dir is the output directory assets are written to.
	Dir string `json:"dir"`
	// PublicPath prefixes every tag src.
	PublicPath string `json:"publicPath"`
	// CrossOrigin is the cross-origin loading mode. Empty means the host
	// never configured one; code-split chunk loading will then be
	// rejected by the browser once integrity attributes are present.
	CrossOrigin string `json:"crossOrigin"`
}

// Snapshot is the per-build arena of chunks, assets and tags.
type Snapshot struct {
	Chunks []Chunk
	Assets map[string]*Asset
	Tags   []Tag
	Output OutputConfig
}

// Asset returns the asset for name, if present.
func (s *Snapshot) Asset(name string) (*Asset, bool) {
	a, ok := s.Assets[name]
	return a, ok
}

// AddIntegrity appends a fingerprint to the asset's metadata.
func (a *Asset) AddIntegrity(value string) {
	a.Integrity = append(a.Integrity, value)
}
