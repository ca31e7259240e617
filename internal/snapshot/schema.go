package snapshot

import (
	"embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	sceneSchema     = mustCompile("schemas/scene.schema.json")
	selectionSchema = mustCompile("schemas/selection.schema.json")
)

func mustCompile(name string) *jsonschema.Schema {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		panic("snapshot: missing embedded schema " + name)
	}
	return jsonschema.MustCompileString(name, string(data))
}
