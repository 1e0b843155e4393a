package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// metadataFile is the JSON document the bundler exports next to its
// output: the chunk graph, the generated tags and the output config.
type metadataFile struct {
	Output OutputConfig `json:"output"`
	Chunks []Chunk      `json:"chunks"`
	Tags   []Tag        `json:"tags"`
}

// LoadMetadata reads the bundler's metadata export and returns a
// snapshot without asset content. Dir inside the metadata is resolved
// relative to the metadata file's directory.
func LoadMetadata(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle metadata %q: %w", path, err)
	}
	var meta metadataFile
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse bundle metadata %q: %w", path, err)
	}
	if meta.Output.Dir != "" && !filepath.IsAbs(meta.Output.Dir) {
		meta.Output.Dir = filepath.Join(filepath.Dir(path), meta.Output.Dir)
	}
	if meta.Output.Dir == "" {
		meta.Output.Dir = filepath.Dir(path)
	}
	return &Snapshot{
		Chunks: meta.Chunks,
		Assets: make(map[string]*Asset),
		Tags:   meta.Tags,
		Output: meta.Output,
	}, nil
}

// LoadAssets reads content for every file named by a chunk from the
// output directory. Missing files are skipped; the graph phase reports
// them.
func (s *Snapshot) LoadAssets() error {
	for _, chunk := range s.Chunks {
		for _, name := range chunk.Files {
			if _, ok := s.Assets[name]; ok {
				continue
			}
			content, err := os.ReadFile(filepath.Join(s.Output.Dir, filepath.FromSlash(name)))
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return fmt.Errorf("failed to read asset %q: %w", name, err)
			}
			s.Assets[name] = &Asset{Name: name, Content: content}
		}
	}
	return nil
}

// FlushAssets writes every dirty asset back to the output directory.
// Returns the names written, sorted.
func (s *Snapshot) FlushAssets() ([]string, error) {
	names := make([]string, 0, len(s.Assets))
	for name, a := range s.Assets {
		if a.Dirty {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(s.Output.Dir, filepath.FromSlash(name))
		if err := os.WriteFile(path, s.Assets[name].Content, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write asset %q: %w", name, err)
		}
	}
	return names, nil
}
