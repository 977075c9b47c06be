package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	ierr "github.com/memberbase/memberbase/internal/errors"
)

func TestTryLockKeyRequiresTransaction(t *testing.T) {
	client := &Client{}

	acquired, err := client.TryLockKey(context.Background(), "grace:sweep")
	assert.False(t, acquired)
	assert.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
}
