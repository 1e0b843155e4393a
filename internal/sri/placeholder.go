package sri

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"strings"
)

// placeholderMark opens the digest field of every placeholder token. The
// string never appears in ordinary bundler output (base64 digests are
// random-looking, source text does not contain it), so locating it by
// substring search is safe.
const placeholderMark = "SEALANTSRIPH"

// idFieldLen is the width of the chunk-id field inside a placeholder:
// eight hex digits of a 32-bit FNV-1a over the chunk id. Fixed width
// keeps the token length independent of the id's spelling.
const idFieldLen = 8

func chunkIDField(chunkID string) string {
	h := fnv.New32a()
	h.Write([]byte(chunkID))
	return fmt.Sprintf("%08x", h.Sum32())
}

// Placeholder returns the marker token reserved for the integrity string
// of chunkID under this engine's algorithm set. The token has exactly the
// byte length of the integrity string the engine would produce, so
// replacing it in place never shifts later offsets in the same buffer.
func (e *Engine) Placeholder(chunkID string) string {
	idField := chunkIDField(chunkID)
	var b strings.Builder
	for i, a := range e.algos {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(string(a))
		b.WriteByte('-')
		payload := placeholderMark + idField
		if fill := a.encodedLen() - len(payload); fill > 0 {
			payload += strings.Repeat("0", fill)
		}
		b.WriteString(payload)
	}
	return b.String()
}

// Locate returns the byte offset of the first occurrence of token in
// content, or -1 when the token is absent. A chunk with no runtime
// children has no placeholder; absence is not an error.
func Locate(content []byte, token string) int {
	return bytes.Index(content, []byte(token))
}

// ReplaceAt overwrites len(repl) bytes of content at off. Callers pair it
// with Locate and an equal-length replacement; the fixed-width guarantee
// of Placeholder makes the overwrite offset-stable.
func ReplaceAt(content []byte, off int, repl string) {
	copy(content[off:], repl)
}
