package orders

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	no := NewOrderNumber(now)

	assert.True(t, ValidOrderNumber(no), no)

	parts := strings.Split(no, "-")
	require.Len(t, parts, 3)
	ms, err := strconv.ParseInt(parts[1], 10, 64)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), ms)
}

func TestValidOrderNumber(t *testing.T) {
	assert.False(t, ValidOrderNumber(""))
	assert.False(t, ValidOrderNumber("ORD-123-0001"))
	assert.False(t, ValidOrderNumber("ORD-1748779200000-01"))
	assert.True(t, ValidOrderNumber("ORD-1748779200000-0042"))
}
