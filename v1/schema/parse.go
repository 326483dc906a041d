package schema

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Declarations is the result of parsing a declaration source.
type Declarations struct {
	Models  []*Model
	Patches []*Patch
}

// Register adds all parsed models to r.
func (d *Declarations) Register(r *Registry) error {
	return r.Register(d.Models...)
}

// --- grammar ---

type declFile struct {
	Decls []*declTop `parser:"@@*"`
}

type declTop struct {
	Model *declModel `parser:"  @@"`
	Patch *declPatch `parser:"| @@"`
}

type declModel struct {
	Pos    lexer.Position
	Name   string       `parser:"'model' @Ident"`
	Table  string       `parser:"( 'table' @String )?"`
	Fields []*declField `parser:"'{' @@* '}'"`
}

type declField struct {
	Pos     lexer.Position
	Name    string        `parser:"@Ident"`
	Type    string        `parser:"@Ident"`
	Target  string        `parser:"( '(' @Ident ')' )?"`
	Options []*declOption `parser:"@@*"`
}

type declOption struct {
	Flag   string `parser:"  @( 'primary' | 'unique' | 'nullable' | 'default' | 'auto' )"`
	Column string `parser:"| 'column' @String"`
	Key    string `parser:"| 'key' @Ident"`
}

type declPatch struct {
	Pos    lexer.Position
	Model  string   `parser:"'patch' @Ident"`
	Name   string   `parser:"'.' @Ident"`
	Fields []string `parser:"'(' ( @Ident ( ',' @Ident )* )? ')'"`
}

var declLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `(?:#|//)[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[{}().,]`},
})

var declParser = participle.MustBuild[declFile](
	participle.Lexer(declLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Unquote("String"),
)

// Parse reads model and patch declarations. Patches may only name models
// declared in the same source.
func Parse(src string) (*Declarations, error) {
	return parse("declarations", src)
}

// ParseFile reads declarations from a file.
func ParseFile(path string) (*Declarations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read declarations: %w", err)
	}
	return parse(path, string(data))
}

func parse(filename, src string) (*Declarations, error) {
	ast, err := declParser.ParseString(filename, src)
	if err != nil {
		return nil, fmt.Errorf("parse declarations: %w", err)
	}

	out := &Declarations{}
	models := make(map[string]*Model)
	for _, top := range ast.Decls {
		if top.Model == nil {
			continue
		}
		m, err := top.Model.build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", top.Model.Pos, err)
		}
		if _, dup := models[m.name]; dup {
			return nil, fmt.Errorf("%s: %w: %q", top.Model.Pos, ErrDuplicateModel, m.name)
		}
		models[m.name] = m
		out.Models = append(out.Models, m)
	}
	for _, top := range ast.Decls {
		if top.Patch == nil {
			continue
		}
		m, ok := models[top.Patch.Model]
		if !ok {
			return nil, fmt.Errorf("%s: %w: %q", top.Patch.Pos, ErrUnknownModel, top.Patch.Model)
		}
		p, err := m.Patch(top.Patch.Name, top.Patch.Fields...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", top.Patch.Pos, err)
		}
		out.Patches = append(out.Patches, p)
	}
	return out, nil
}

func (d *declModel) build() (*Model, error) {
	defs := make([]FieldDef, 0, len(d.Fields))
	for _, f := range d.Fields {
		def, err := f.build()
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", d.Name, err)
		}
		defs = append(defs, def)
	}
	return NewTableModel(d.Name, d.Table, defs...)
}

func (f *declField) build() (FieldDef, error) {
	typ, err := ParseFieldType(f.Type)
	if err != nil {
		return FieldDef{}, fmt.Errorf("field %q: %w", f.Name, err)
	}
	if (typ == Reference) != (f.Target != "") {
		return FieldDef{}, fmt.Errorf("%w: field %q: only references name a target", ErrInvalidModel, f.Name)
	}

	def := Define(f.Name, typ)
	def.references = f.Target
	for _, opt := range f.Options {
		switch {
		case opt.Column != "":
			def = def.Column(opt.Column)
		case opt.Key != "":
			kt, err := ParseFieldType(opt.Key)
			if err != nil {
				return FieldDef{}, fmt.Errorf("field %q: %w", f.Name, err)
			}
			def = def.KeyType(kt)
		default:
			def = def.With(flagAnnotations[opt.Flag])
		}
	}
	return def, nil
}

var flagAnnotations = map[string]Annotation{
	"primary":  PrimaryKey,
	"unique":   Unique,
	"nullable": Nullable,
	"default":  HasDefault,
	"auto":     AutoGenerated,
}
