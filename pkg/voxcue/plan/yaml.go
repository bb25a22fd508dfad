package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlDoc mirrors RenderPlan with yaml tags, since the in-memory struct
// uses json-free field names and spec §3's pointer-optional fields need
// yaml's nil-vs-zero distinction preserved across the wire, same as the
// teacher's script_parser.go treats its own document shape as a separate
// decode target from the runtime model.
type yamlDoc struct {
	Characters []Character `yaml:"characters"`
	Lines      []Line      `yaml:"lines"`
	Global     *GlobalSettings `yaml:"global"`
	Metadata   map[string]string `yaml:"metadata"`
}

// LoadYAML reads a RenderPlan document from path, filling in
// GlobalSettings defaults when the document omits the global block.
func LoadYAML(path string) (*RenderPlan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plan: read %s: %w", path, err)
	}
	return ParseYAML(raw)
}

// ParseYAML decodes raw YAML bytes into a RenderPlan.
func ParseYAML(raw []byte) (*RenderPlan, error) {
	var doc yamlDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("plan: decode yaml: %w", err)
	}

	global := DefaultGlobalSettings()
	if doc.Global != nil {
		global = *doc.Global
	}

	p := &RenderPlan{
		Characters: doc.Characters,
		Lines:      doc.Lines,
		Global:     global,
		Metadata:   doc.Metadata,
	}
	p.EnsureIDs()
	return p, nil
}
