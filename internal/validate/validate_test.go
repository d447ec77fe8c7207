package validate

import (
	"strings"
	"testing"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"a@x.com", true},
		{"first.last@sub.example.org", true},
		{"", false},
		{"no-at.example.com", false},
		{"two@@x.com", false},
		{"a b@x.com", false},
		{"a@nodot", false},
	}
	for _, tc := range cases {
		r := Email(tc.in)
		assert.Equal(t, tc.valid, r.Valid, "input %q", tc.in)
		if !tc.valid {
			assert.Equal(t, apperr.CodeInvalidFormat, r.Code)
		}
	}
	assert.Equal(t, "Email is required", Email("").Message)
}

func TestListName(t *testing.T) {
	r := ListName("  Groceries  ")
	require.True(t, r.Valid)
	assert.Equal(t, "Groceries", r.Value)

	r = ListName("   ")
	assert.False(t, r.Valid)
	assert.Equal(t, apperr.CodeEmpty, r.Code)

	assert.True(t, ListName(strings.Repeat("a", 100)).Valid)
	r = ListName(strings.Repeat("a", 101))
	assert.False(t, r.Valid)
	assert.Equal(t, apperr.CodeTooLong, r.Code)
}

func TestItemNameLimitCountsRunes(t *testing.T) {
	assert.True(t, ItemName(strings.Repeat("é", 200)).Valid)
	assert.False(t, ItemName(strings.Repeat("é", 201)).Valid)
	assert.True(t, ItemName("  "+strings.Repeat("b", 200)+"  ").Valid)
}

func TestFriendName(t *testing.T) {
	assert.False(t, FriendName("").Valid)
	assert.False(t, FriendName(strings.Repeat("n", 51)).Valid)
	assert.Equal(t, "Bob", FriendName(" Bob ").Value)
}

func TestResultErr(t *testing.T) {
	assert.NoError(t, ItemName("Milk").Err())
	err := ItemName("").Err()
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestLines(t *testing.T) {
	assert.Equal(t, []Line{{1, "Milk"}, {3, "Eggs"}, {4, "Bread"}}, Lines("Milk\n\nEggs\n  Bread  "))
	assert.Equal(t, []Line{{1, "a"}, {2, "b"}}, Lines("a\r\nb\r\n"))
	assert.Empty(t, Lines(" \n\t\n"))
}
