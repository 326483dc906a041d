// Package schema holds the model declarations the query core validates against.
//
// A Model is a named, immutable, ordered set of typed Fields mapping to one
// storage table. Exactly one Field is the primary key. A Patch is a named
// ordered subset of a Model's Fields used to restrict which columns take part
// in an operation.
//
// Models are declared once at process startup and collected in a Registry.
// Builders in the orm package consult the declarations at construction time
// to validate projections, conditions and required-field coverage.
//
// # Declaring models in Go
//
//	users, err := schema.NewModel("users",
//	    schema.Int("id").PrimaryKey().AutoGenerated(),
//	    schema.Text("name"),
//	    schema.Int("age"),
//	    schema.Text("nickname").Nullable(),
//	    schema.Timestamp("created_at").AutoGenerated(),
//	)
//	if err != nil {
//	    return err
//	}
//	schema.MustRegister(users)
//
// # Declaring models in text
//
// The same declarations can be loaded from the declaration language:
//
//	model users {
//	    id         integer   primary auto
//	    name       string
//	    age        integer
//	    nickname   string    nullable
//	    created_at timestamp auto
//	}
//
//	patch users.signup (name, age)
//
// or from YAML documents, see LoadYAML.
package schema
