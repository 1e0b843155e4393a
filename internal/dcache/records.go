package dcache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// RecordsFileName is written into the output directory by a seal run and
// read back by verify.
const RecordsFileName = "sealant.records"

// Records is the persisted asset -> integrity map for one build.
type Records struct {
	Schema     uint16
	Algorithms []string
	Entries    map[string]string
}

// WriteRecords writes the records file atomically into dir.
func WriteRecords(dir string, algorithms []string, entries map[string]string) error {
	records := Records{
		Schema:     schemaVersion,
		Algorithms: algorithms,
		Entries:    entries,
	}
	p := filepath.Join(dir, RecordsFileName)
	f, err := os.CreateTemp(dir, "tmp-records-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(&records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// ReadRecords loads the records file from dir.
func ReadRecords(dir string) (*Records, error) {
	f, err := os.Open(filepath.Join(dir, RecordsFileName))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records Records
	if err := msgpack.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", RecordsFileName, err)
	}
	if records.Schema != schemaVersion {
		return nil, fmt.Errorf("%s has schema %d, expected %d (re-run seal)", RecordsFileName, records.Schema, schemaVersion)
	}
	return &records, nil
}
