package schema

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

type yamlDocument struct {
	Models  []yamlModel `json:"models"`
	Patches []yamlPatch `json:"patches"`
}

type yamlModel struct {
	Name   string      `json:"name"`
	Table  string      `json:"table,omitempty"`
	Fields []yamlField `json:"fields"`
}

type yamlField struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Column     string `json:"column,omitempty"`
	References string `json:"references,omitempty"`
	KeyType    string `json:"key_type,omitempty"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
	Unique     bool   `json:"unique,omitempty"`
	Nullable   bool   `json:"nullable,omitempty"`
	Default    bool   `json:"default,omitempty"`
	Auto       bool   `json:"auto,omitempty"`
}

type yamlPatch struct {
	Model  string   `json:"model"`
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// LoadYAML reads declarations from a YAML document of the form
//
//	models:
//	  - name: users
//	    fields:
//	      - {name: id, type: integer, primary_key: true, auto: true}
//	      - {name: name, type: string}
//	patches:
//	  - {model: users, name: signup, fields: [name]}
func LoadYAML(data []byte) (*Declarations, error) {
	var doc yamlDocument
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml declarations: %w", err)
	}

	out := &Declarations{}
	models := make(map[string]*Model, len(doc.Models))
	for _, ym := range doc.Models {
		defs := make([]FieldDef, 0, len(ym.Fields))
		for _, yf := range ym.Fields {
			def, err := yf.def()
			if err != nil {
				return nil, fmt.Errorf("model %q: %w", ym.Name, err)
			}
			defs = append(defs, def)
		}
		m, err := NewTableModel(ym.Name, ym.Table, defs...)
		if err != nil {
			return nil, err
		}
		if _, dup := models[m.name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateModel, m.name)
		}
		models[m.name] = m
		out.Models = append(out.Models, m)
	}
	for _, yp := range doc.Patches {
		m, ok := models[yp.Model]
		if !ok {
			return nil, fmt.Errorf("%w: patch %q targets %q", ErrUnknownModel, yp.Name, yp.Model)
		}
		p, err := m.Patch(yp.Name, yp.Fields...)
		if err != nil {
			return nil, err
		}
		out.Patches = append(out.Patches, p)
	}
	return out, nil
}

// LoadYAMLFile reads YAML declarations from a file.
func LoadYAMLFile(path string) (*Declarations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read declarations: %w", err)
	}
	return LoadYAML(data)
}

func (yf yamlField) def() (FieldDef, error) {
	typ, err := ParseFieldType(yf.Type)
	if err != nil {
		return FieldDef{}, fmt.Errorf("field %q: %w", yf.Name, err)
	}
	def := Define(yf.Name, typ).Column(yf.Column)
	if typ == Reference {
		def.references = yf.References
		if yf.KeyType != "" {
			kt, err := ParseFieldType(yf.KeyType)
			if err != nil {
				return FieldDef{}, fmt.Errorf("field %q: %w", yf.Name, err)
			}
			def = def.KeyType(kt)
		}
	}
	if yf.PrimaryKey {
		def = def.PrimaryKey()
	}
	if yf.Unique {
		def = def.Unique()
	}
	if yf.Nullable {
		def = def.Nullable()
	}
	if yf.Default {
		def = def.Default()
	}
	if yf.Auto {
		def = def.AutoGenerated()
	}
	return def, nil
}
