package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCreateGroup_Defaults(t *testing.T) {
	got := NormalizeCreateGroup(CreateGroupRequest{Name: "devs"})

	assert.Equal(t, "devs", got.Name)
	assert.Equal(t, "ko", got.LangTag)
	require.NotNil(t, got.Open)
	assert.True(t, *got.Open)
	assert.Equal(t, 100, got.MaxCount)
}

func TestNormalizeCreateGroup_KeepsExplicitValues(t *testing.T) {
	closed := false
	got := NormalizeCreateGroup(CreateGroupRequest{Name: "ops", LangTag: "en", Open: &closed, MaxCount: 5})

	assert.Equal(t, "en", got.LangTag)
	assert.False(t, *got.Open)
	assert.Equal(t, 5, got.MaxCount)
}

func TestIsMember(t *testing.T) {
	ugs := []UserGroup{
		{Group: Group{ID: "g1"}, State: StateMember},
		{Group: Group{ID: "g2"}, State: StateSuperAdmin},
		{Group: Group{ID: "g3"}, State: StateInvited},
	}

	assert.True(t, IsMember(ugs, "g1"))
	assert.True(t, IsMember(ugs, "g2"))
	assert.False(t, IsMember(ugs, "g3"))
	assert.False(t, IsMember(ugs, "g4"))
	assert.False(t, IsMember(nil, "g1"))
}
