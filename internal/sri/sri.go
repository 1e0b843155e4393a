// Package sri computes Subresource Integrity strings and the fixed-width
// placeholder tokens that stand in for them inside emitted chunk content.
package sri

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"strings"
)

// ErrUnsupportedAlgorithm is returned when a requested algorithm name has
// no implementation. It is the one unrecoverable configuration error:
// continuing would make every digest silently wrong.
var ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

type Algorithm string

// The browser SRI algorithm set. MD5/SHA-1 are deliberately absent: user
// agents ignore integrity metadata built on them.
const (
	SHA256 Algorithm = "sha256"
	SHA384 Algorithm = "sha384"
	SHA512 Algorithm = "sha512"
)

func newHasher(algorithm Algorithm) (hash.Hash, error) {
	switch algorithm {
	case SHA256:
		return sha256.New(), nil
	case SHA384:
		return sha512.New384(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}
}

// encodedLen returns the length of the base64 digest for the algorithm.
func (a Algorithm) encodedLen() int {
	switch a {
	case SHA256:
		return base64.StdEncoding.EncodedLen(sha256.Size)
	case SHA384:
		return base64.StdEncoding.EncodedLen(sha512.Size384)
	case SHA512:
		return base64.StdEncoding.EncodedLen(sha512.Size)
	}
	return 0
}

// Hasher is the digest contract shared by the engine and its caching
// wrappers.
type Hasher interface {
	Integrity(content []byte) string
}

// Engine derives integrity strings for a fixed, ordered algorithm set.
// It is pure: same bytes, same string.
type Engine struct {
	algos []Algorithm
}

// NewEngine validates the requested algorithm names and returns an engine
// producing one integrity token per algorithm, in the given order.
func NewEngine(names []string) (*Engine, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no hash algorithms configured")
	}
	algos := make([]Algorithm, 0, len(names))
	for _, name := range names {
		a := Algorithm(strings.ToLower(strings.TrimSpace(name)))
		if _, err := newHasher(a); err != nil {
			return nil, err
		}
		algos = append(algos, a)
	}
	return &Engine{algos: algos}, nil
}

// Algorithms returns the configured algorithm set in order.
func (e *Engine) Algorithms() []Algorithm {
	return e.algos
}

// Names returns the algorithm set as plain strings.
func (e *Engine) Names() []string {
	names := make([]string, len(e.algos))
	for i, a := range e.algos {
		names[i] = string(a)
	}
	return names
}

// Integrity returns the space-separated integrity string for content,
// one "<algorithm>-<base64(digest)>" token per configured algorithm.
func (e *Engine) Integrity(content []byte) string {
	var b strings.Builder
	for i, a := range e.algos {
		if i > 0 {
			b.WriteByte(' ')
		}
		h, err := newHasher(a)
		if err != nil {
			// NewEngine validated the set; unreachable without misuse.
			panic(err)
		}
		h.Write(content)
		b.WriteString(string(a))
		b.WriteByte('-')
		b.WriteString(base64.StdEncoding.EncodeToString(h.Sum(nil)))
	}
	return b.String()
}

// IntegrityLen returns the byte length of any integrity string this
// engine produces. Digest lengths are fixed per algorithm, so the length
// depends only on the algorithm set.
func (e *Engine) IntegrityLen() int {
	n := 0
	for i, a := range e.algos {
		if i > 0 {
			n++
		}
		n += len(a) + 1 + a.encodedLen()
	}
	return n
}

// Parse splits an integrity token like "sha384-<base64>" and validates
// the algorithm name. Used to vet integrity values this tool did not
// produce, such as author-written tag attributes.
func Parse(token string) (Algorithm, string, error) {
	algo, digest, ok := strings.Cut(token, "-")
	if !ok {
		return "", "", fmt.Errorf("invalid integrity token %q", token)
	}
	a := Algorithm(algo)
	if _, err := newHasher(a); err != nil {
		return "", "", err
	}
	return a, digest, nil
}
