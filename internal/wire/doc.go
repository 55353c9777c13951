// Package wire encodes journal payloads as canonical JSON and derives
// content-addressed digests from them.
//
// Canonical form: object keys sorted by UTF-16 code units, strings NFC
// normalized, no HTML escaping, integers only. The same payload always
// encodes to the same bytes, which keeps golden traces and submission
// digests stable across runs.
package wire
