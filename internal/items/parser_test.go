package items

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/island-order-service/internal/domain"
)

func TestParseBasic(t *testing.T) {
	b, err := Parse("0FCB 0FCC 0FCB")
	require.NoError(t, err)
	require.Len(t, b, 3)
	assert.Equal(t, uint16(0x0FCB), b[0].ID)
	assert.Equal(t, 1, b[0].Count)
	assert.Equal(t, 3, b.Len())
}

func TestParseCounts(t *testing.T) {
	b, err := Parse("0FCBx10 11A1x3")
	require.NoError(t, err)
	require.Len(t, b, 2)
	assert.Equal(t, 10, b[0].Count)
	assert.Equal(t, 3, b[1].Count)
	assert.Equal(t, 13, b.Len())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: "   "},
		{name: "not hex", input: "gold"},
		{name: "too wide", input: "1FFFF"},
		{name: "zero count", input: "0FCBx0"},
		{name: "huge count", input: "0FCBx100"},
		{name: "garbage count", input: "0FCBxϟ"},
		{name: "only empty slots", input: "0 0 0"},
		{name: "out of range id", input: "32E7"},
		{name: "unsafe id", input: "1A5C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestParseSkipsEmptySlots(t *testing.T) {
	b, err := Parse("0 0FCB 0")
	require.NoError(t, err)
	require.Len(t, b, 1)
}

func TestParseCapsAtMaxOrder(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < MaxOrder+10; i++ {
		fmt.Fprintf(&sb, "%04X ", 0x0FCB)
	}
	b, err := Parse(sb.String())
	require.NoError(t, err)
	assert.Len(t, b, MaxOrder)
}

func TestDescribeGroupsAndNames(t *testing.T) {
	b := Bundle{
		{ID: 0x0FCB, Count: 2},
		{ID: 0x11A1, Count: 1},
		{ID: 0x0FCB, Count: 1},
		{ID: 0x0123, Count: 1},
	}
	got := b.Describe()
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 3, "same item must be grouped")
	assert.Equal(t, "• gold nugget x3", lines[0])
	assert.Equal(t, "• star fragment", lines[1])
	assert.Equal(t, "• item #0123", lines[2])
}

func TestDescribeEmpty(t *testing.T) {
	assert.Equal(t, "no items", Bundle{}.Describe())
}
