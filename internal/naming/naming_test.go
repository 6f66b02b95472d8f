package naming

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"select":  "selectFields",
		"type":    "kind",
		"map":     "map_",
		"string":  "string_",
		"ctx":     "ctx_",
		"client":  "client_",
		"uuid":    "uuid",
		"filters": "filters",
	}
	for in, want := range cases {
		assert.Equal(t, want, Sanitize(in), "Sanitize(%q)", in)
	}
}

func TestSanitizeNeverYieldsKeyword(t *testing.T) {
	t.Parallel()
	for _, kw := range []string{"break", "case", "chan", "const", "continue", "defer", "else",
		"fallthrough", "for", "go", "goto", "if", "import", "interface", "package", "return",
		"struct", "switch", "var"} {
		got := Sanitize(kw)
		assert.False(t, token.IsKeyword(got), "%q -> %q", kw, got)
		assert.True(t, token.IsIdentifier(got), "%q -> %q", kw, got)
	}
}

func TestLocalName(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"uuid":               "uuid",
		"ensure_unique_name": "ensureUniqueName",
		"cluster_id":         "clusterId",
		"select":             "selectFields",
		"include-trash":      "includeTrash",
		"$ref":               "ref",
		"2fa":                "x2Fa",
		"":                   "x",
		"limit":              "limit",
		"c":                  "c_",
	}
	for in, want := range cases {
		got := LocalName(in)
		assert.Equal(t, want, got, "LocalName(%q)", in)
		assert.True(t, token.IsIdentifier(got), "LocalName(%q) = %q", in, got)
	}
}

func TestCamelize(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"keep_services":     "KeepServices",
		"KeepService":       "KeepService",
		"owner_uuid":        "OwnerUUID",
		"api_client":        "APIClient",
		"service_ssl_flag":  "ServiceSslFlag",
		"container.request": "ContainerRequest",
		"9lives":            "X9lives",
		"---":               "X",
		"get":               "Get",
		"日本":                "X日本",
		"名前_id":             "X名前ID",
	}
	for in, want := range cases {
		got := Camelize(in)
		assert.Equal(t, want, got, "Camelize(%q)", in)
		assert.True(t, token.IsExported(got))
	}
}

func TestUniquer(t *testing.T) {
	t.Parallel()
	u := NewUniquer("Fetch")
	assert.Equal(t, "Fetch2", u.Take("Fetch"))
	assert.Equal(t, "Limit", u.Take("Limit"))
	assert.Equal(t, "Limit2", u.Take("Limit"))
	assert.Equal(t, "Limit3", u.Take("Limit"))
}
