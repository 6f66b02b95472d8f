package oasemitter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/discovery2go/internal/discovery"
	"github.com/mark3labs/discovery2go/internal/fixtures"
	"github.com/mark3labs/discovery2go/internal/ir"
)

func arvadosAPI(t *testing.T) *ir.API {
	t.Helper()
	doc, err := discovery.Parse(fixtures.ArvadosV1())
	require.NoError(t, err)
	api, err := ir.Build(discovery.Filter(doc, discovery.ArvadosV1Exclusions()))
	require.NoError(t, err)
	return api
}

func TestBuild_Arvados(t *testing.T) {
	t.Parallel()
	doc, err := Build(context.Background(), arvadosAPI(t))
	require.NoError(t, err)

	assert.Equal(t, "Arvados API", doc.Info.Title)
	assert.Equal(t, "v1", doc.Info.Version)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "https://zzzzz.arvadosapi.com/arvados/v1/", doc.Servers[0].URL)
	assert.Contains(t, doc.Components.Schemas, "KeepService")

	item := doc.Paths["/keep_services/{uuid}"]
	require.NotNil(t, item)
	require.NotNil(t, item.Get)
	assert.Equal(t, "arvados.keep_services.get", item.Get.OperationID)
	assert.Equal(t, []string{"keep_services"}, item.Get.Tags)
	uuid := item.Get.Parameters.GetByInAndName(openapi3.ParameterInPath, "uuid")
	require.NotNil(t, uuid)
	assert.True(t, uuid.Required)

	resp := item.Get.Responses.Get(200)
	require.NotNil(t, resp)
	assert.Equal(t, "#/components/schemas/KeepService", resp.Value.Content.Get("application/json").Schema.Ref)

	create := doc.Paths["/collections"].Post
	require.NotNil(t, create)
	require.NotNil(t, create.RequestBody)
	body := create.RequestBody.Value.Content.Get("application/json").Schema.Value
	assert.Equal(t, []string{"collection"}, body.Required)
	assert.Equal(t, "#/components/schemas/Collection", body.Properties["collection"].Ref)
	ensure := create.Parameters.GetByInAndName(openapi3.ParameterInQuery, "ensure_unique_name")
	require.NotNil(t, ensure)
	assert.False(t, ensure.Required)

	assert.Nil(t, doc.Paths["/jobs/{uuid}"])
}

func TestMarshal_JSONAndYAML(t *testing.T) {
	t.Parallel()
	doc, err := Build(context.Background(), arvadosAPI(t))
	require.NoError(t, err)

	js, err := Marshal(doc, JSON)
	require.NoError(t, err)
	var viaJSON map[string]any
	require.NoError(t, json.Unmarshal(js, &viaJSON))
	assert.Equal(t, "3.0.3", viaJSON["openapi"])

	ys, err := Marshal(doc, YAML)
	require.NoError(t, err)
	var viaYAML map[string]any
	require.NoError(t, yaml.Unmarshal(ys, &viaYAML))
	assert.Equal(t, viaJSON["openapi"], viaYAML["openapi"])
	assert.Len(t, viaYAML["paths"], len(viaJSON["paths"].(map[string]any)))
	assert.Contains(t, string(ys), "openapi: 3.0.3\n")
	assert.Contains(t, string(ys), "\n  /keep_services/{uuid}:\n")
	assert.NotContains(t, string(ys), "{\"")

	reloaded, err := openapi3.NewLoader().LoadFromData(ys)
	require.NoError(t, err)
	require.NoError(t, reloaded.Validate(context.Background()))

	_, err = Marshal(doc, Format("toml"))
	require.Error(t, err)
}

func TestEmit_Deterministic(t *testing.T) {
	t.Parallel()
	a, err := Emit(context.Background(), arvadosAPI(t), Options{Format: YAML})
	require.NoError(t, err)
	b, err := Emit(context.Background(), arvadosAPI(t), Options{Format: YAML})
	require.NoError(t, err)
	assert.Equal(t, a.Source, b.Source)
}

func TestEmit_WritesFile(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "arvados.json")
	res, err := Emit(context.Background(), arvadosAPI(t), Options{Output: out})
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, res.Source, data)

	_, err = Emit(context.Background(), arvadosAPI(t), Options{Output: filepath.Join(out, "nested.json")})
	require.Error(t, err)
	assert.True(t, discovery.IsCode(err, discovery.FileIOError))
}

func TestBuild_MapsAndSlices(t *testing.T) {
	t.Parallel()
	doc, err := discovery.Parse([]byte(`{
	  "name": "demo",
	  "schemas": {
	    "Node": {"id": "Node", "properties": {
	      "children": {"type": "array", "items": {"$ref": "Node"}},
	      "labels": {"type": "object", "additionalProperties": {"type": "string"}},
	      "size": {"type": "string", "format": "int64"},
	      "state": {"type": "string", "enum": ["on", "off"], "description": "Power state."}
	    }}
	  }
	}`))
	require.NoError(t, err)
	api, err := ir.Build(doc)
	require.NoError(t, err)

	out, err := Build(context.Background(), api)
	require.NoError(t, err)
	node := out.Components.Schemas["Node"].Value
	assert.Equal(t, "#/components/schemas/Node", node.Properties["children"].Value.Items.Ref)
	assert.Equal(t, "string", node.Properties["labels"].Value.AdditionalProperties.Schema.Value.Type)
	assert.Empty(t, node.Properties["size"].Value.Format)
	assert.Equal(t, []any{"on", "off"}, node.Properties["state"].Value.Enum)
	assert.Equal(t, "Power state.", node.Properties["state"].Value.Description)
}

func TestExpandPath(t *testing.T) {
	t.Parallel()
	args := []*ir.Field{{WireName: "uuid"}, {WireName: "path"}}
	assert.Equal(t, "collections/{uuid}/files/{path}", expandPath("collections/{}/files/{}", args))
	assert.Equal(t, "users/current", expandPath("users/current", nil))
	assert.Equal(t, "v1/{name}:cancel/{id}", expandPath("v1/{+}:cancel/{}", []*ir.Field{{WireName: "name"}, {WireName: "id"}}))
}
