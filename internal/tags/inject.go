// Package tags attaches integrity and crossorigin attributes to the
// HTML reference tags supplied by the host's tag generator.
package tags

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"sealant/internal/bundle"
	"sealant/internal/diag"
	"sealant/internal/registry"
	"sealant/internal/sri"
)

// DefaultCrossOrigin is used when the output configuration never set a
// cross-origin mode. Injection still works, but code-split chunk loading
// will be rejected by the browser, so the fallback comes with a
// fatal-severity diagnostic.
const DefaultCrossOrigin = "anonymous"

type Injector struct {
	Registry *registry.Registry
	Hasher   sri.Hasher
	Output   bundle.OutputConfig
	Reporter diag.Reporter
}

// Inject annotates every tag that references a hashable asset. Tags that
// already carry an integrity attribute are never touched, so a second
// pass over the same list is a no-op. Returns the number of tags
// mutated.
func (inj *Injector) Inject(tagList []bundle.Tag) int {
	injected := 0
	for i := range tagList {
		tag := &tagList[i]
		if existing := tag.Attributes["integrity"]; existing != "" {
			inj.checkAuthorIntegrity(tag, existing)
			continue
		}
		src := tag.Src
		if src == "" {
			src = tag.Attributes["src"]
		}
		if src == "" {
			src = tag.Attributes["href"]
		}
		if src == "" {
			continue
		}

		key := inj.assetKey(src)
		digest, ok := inj.Registry.Lookup(key)
		if !ok {
			digest, ok = inj.Registry.Lookup(normalizeKey(key))
		}
		if !ok {
			digest, ok = inj.hashFromDisk(key)
		}
		if !ok {
			inj.Reporter.Report(
				diag.TagMissingDigest,
				diag.SevWarning,
				diag.Ref{Asset: key},
				fmt.Sprintf("no integrity value available for %q referenced by a %s tag", src, tag.Element),
				nil,
			)
			continue
		}

		if tag.Attributes == nil {
			tag.Attributes = make(map[string]string, 2)
		}
		tag.Attributes["integrity"] = digest
		if tag.Attributes["crossorigin"] == "" {
			tag.Attributes["crossorigin"] = inj.crossOrigin()
		}
		injected++
	}
	return injected
}

// checkAuthorIntegrity validates an integrity attribute that was already
// present on the tag. The value is always preserved, but a token the
// browser will not accept (unknown algorithm, no dash) earns a warning.
func (inj *Injector) checkAuthorIntegrity(tag *bundle.Tag, value string) {
	for _, token := range strings.Fields(value) {
		if _, _, err := sri.Parse(token); err != nil {
			inj.Reporter.Report(
				diag.TagMalformedIntegrity,
				diag.SevWarning,
				diag.Ref{Asset: tag.Src},
				fmt.Sprintf("%s tag carries integrity token %q the browser will ignore: %v", tag.Element, token, err),
				nil,
			)
			return
		}
	}
}

func (inj *Injector) crossOrigin() string {
	if inj.Output.CrossOrigin != "" {
		return inj.Output.CrossOrigin
	}
	inj.Reporter.Report(
		diag.CfgCrossOriginUnset,
		diag.SevFatal,
		diag.Ref{},
		"output configuration sets no cross-origin loading mode; browsers will refuse integrity-checked chunk loads (defaulting to \"anonymous\")",
		nil,
	)
	return DefaultCrossOrigin
}

// assetKey resolves a tag src to a registry key relative to the public
// path.
func (inj *Injector) assetKey(src string) string {
	key := src
	if cut, _, found := strings.Cut(key, "?"); found {
		key = cut
	}
	if cut, _, found := strings.Cut(key, "#"); found {
		key = cut
	}
	if inj.Output.PublicPath != "" {
		key = strings.TrimPrefix(key, inj.Output.PublicPath)
	}
	return strings.TrimPrefix(key, "/")
}

// normalizeKey smooths over separator and prefix mismatches between the
// tag generator and the registry.
func normalizeKey(key string) string {
	cleaned := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	return strings.TrimPrefix(cleaned, "./")
}

// hashFromDisk covers assets finalized after the patch pass, e.g. by a
// later optimization step: read the bytes from the output directory and
// hash on demand.
func (inj *Injector) hashFromDisk(key string) (string, bool) {
	if inj.Output.Dir == "" {
		return "", false
	}
	content, err := os.ReadFile(filepath.Join(inj.Output.Dir, filepath.FromSlash(normalizeKey(key))))
	if err != nil {
		return "", false
	}
	return inj.Hasher.Integrity(content), true
}
