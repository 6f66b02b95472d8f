// Package fixtures embeds discovery documents shared by tests across packages.
package fixtures

import _ "embed"

//go:embed arvados-v1.json
var arvadosV1 []byte

// ArvadosV1 returns a copy of a trimmed Arvados v1 discovery document. It
// contains the deprecated "jobs" resource and the aliased "index", "show",
// and "destroy" methods, so generating from it unfiltered fails.
func ArvadosV1() []byte {
	return append([]byte(nil), arvadosV1...)
}
