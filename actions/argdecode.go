package actions

import "gopkg.in/yaml.v3"

// decodeArgs decodes a rendered argument document (already walked through
// the renderer's RecursiveRender, so every template string is resolved)
// into a kind-specific typed argument struct. It round-trips through YAML
// rather than reflect-based field copying: the argument structs already
// carry `yaml:"..."` tags for the loader's own document decoding, so this
// reuses the exact same tag-driven mapping instead of a second, bespoke
// one.
func decodeArgs(rendered map[string]interface{}, out interface{}) error {
	raw, err := yaml.Marshal(rendered)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, out)
}
