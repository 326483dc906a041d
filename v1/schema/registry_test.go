package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	users := MustModel("users", Int("id").PrimaryKey())
	posts := MustModel("posts", Int("id").PrimaryKey(), Ref("author", "users"))

	require.NoError(t, r.Register(users, posts))
	require.NoError(t, r.Validate())

	got, err := r.Model("posts")
	require.NoError(t, err)
	assert.Same(t, posts, got)
	assert.Equal(t, []*Model{users, posts}, r.Models())

	_, err = r.Model("comments")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestRegistry_RegisterIsAtomic(t *testing.T) {
	r := NewRegistry()
	a := MustModel("a", Int("id").PrimaryKey())
	b := MustModel("b", Int("id").PrimaryKey())
	require.NoError(t, r.Register(a))

	err := r.Register(b, MustModel("a", Int("id").PrimaryKey()))
	assert.ErrorIs(t, err, ErrDuplicateModel)

	_, err = r.Model("b")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestRegistry_Validate(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(
		MustModel("tags", Text("slug").PrimaryKey()),
		MustModel("posts",
			Int("id").PrimaryKey(),
			Ref("tag", "tags"),
			Ref("owner", "users"),
		),
	)

	err := r.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownModel)
	assert.ErrorIs(t, err, ErrInvalidModel)
}
