// Package diag carries non-fatal diagnostics produced while integrity
// hashes are derived and injected. The core never aborts the host build:
// graph irregularities, unresolved placeholders and content-identity
// hazards all flow through a Reporter and degrade the output instead of
// failing it. Only configuration errors that would make every digest
// silently wrong (an unknown algorithm) surface as ordinary Go errors.
package diag
