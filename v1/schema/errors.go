package schema

import "errors"

var (
	// ErrUnknownType is returned for type names that do not map to a FieldType.
	ErrUnknownType = errors.New("schema: unknown field type")

	// ErrInvalidModel is returned when a model declaration is malformed.
	ErrInvalidModel = errors.New("schema: invalid model")

	// ErrUnknownField is returned when a field name is not part of a model.
	ErrUnknownField = errors.New("schema: unknown field")

	// ErrDuplicateModel is returned when a registry already holds a model of the same name.
	ErrDuplicateModel = errors.New("schema: duplicate model")

	// ErrUnknownModel is returned when a registry lookup fails.
	ErrUnknownModel = errors.New("schema: unknown model")
)
