package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusConfirmed, StatusDispatched))
	assert.True(t, CanTransition(StatusConfirmed, StatusCancelled))
	assert.True(t, CanTransition(StatusDispatched, StatusDelivered))

	assert.False(t, CanTransition(StatusDispatched, StatusDispatched))
	assert.False(t, CanTransition(StatusDelivered, StatusConfirmed))
	assert.False(t, CanTransition(StatusCancelled, StatusConfirmed))
	assert.False(t, CanTransition(StatusDispatched, StatusCancelled))
	assert.False(t, CanTransition(Status("bogus"), StatusConfirmed))
}
