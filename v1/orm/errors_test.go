package orm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCategorize(t *testing.T) {
	driverErr := errors.New("driver says no")

	tests := []struct {
		name      string
		err       error
		category  ErrorCategory
		retryable bool
		temporary bool
		critical  bool
	}{
		{"nil", nil, CategoryUnknown, false, false, false},
		{"plain", driverErr, CategoryUnknown, false, false, false},
		{"validation", invalid("Query.Limit", ErrInvalidBound, ""), CategoryValidation, false, false, false},
		{"not found", fmt.Errorf("%w: people", ErrNotFound), CategoryNotFound, false, false, false},
		{"duplicate", Classify(ErrDuplicateKey, driverErr), CategoryConstraint, false, false, false},
		{"deadlock", Classify(ErrDeadlock, driverErr), CategoryTransient, true, true, false},
		{"deadline", context.DeadlineExceeded, CategoryTimeout, false, true, false},
		{"connection", Classify(ErrConnection, driverErr), CategoryConnection, true, true, false},
		{"disk full", Classify(ErrResourceExhausted, driverErr), CategoryResource, false, false, true},
		{"internal", Classify(ErrInternal, driverErr), CategorySystem, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, Categorize(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
			assert.Equal(t, tt.temporary, IsTemporary(tt.err))
			assert.Equal(t, tt.critical, IsCritical(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	driverErr := errors.New("unique violation")

	err := Classify(ErrDuplicateKey, driverErr)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.ErrorIs(t, err, driverErr)
	assert.Same(t, err, Classify(ErrDuplicateKey, err))
	assert.Same(t, driverErr, Classify(nil, driverErr))
	assert.NoError(t, Classify(ErrDuplicateKey, nil))
}

func TestDatabase_ErrorTranslator(t *testing.T) {
	ctx := context.Background()
	b := newMockBackend(t)
	driverErr := errors.New("23505")
	db := b.db(WithErrorTranslator(func(err error) error {
		return Classify(ErrDuplicateKey, err)
	}))

	b.transport.EXPECT().Exec(ctx, "SQL", int64(1)).Return(int64(0), driverErr)
	_, err := Delete(db, people).All().Exec(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.ErrorIs(t, err, driverErr)
	assert.Equal(t, CategoryConstraint, Categorize(err))

	b.transport.EXPECT().Begin(ctx).Return(b.tx, nil)
	b.tx.EXPECT().Commit(ctx).Return(driverErr)
	b.logger.EXPECT().Error(gomock.Any(), gomock.Any(), gomock.Any())
	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	err = tx.Commit(ctx)
	assert.ErrorIs(t, err, ErrCommitUncertain)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}
