package therapist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListFromProse(t *testing.T) {
	text := "Here are some options near you:\n```json\n[\n  {\"name\": \"Calm Clinic\", \"rating\": 4.7, \"distance_km\": \"1.2\", \"status\": \"Open now\"},\n  {\"name\": \"Dr. Lee\", \"rating\": \"4.9\", \"distance_km\": 3}\n]\n```\nTake care!"

	list, ok := ParseList(text)
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, "Calm Clinic", list[0].Name)
	assert.Equal(t, "4.7", string(list[0].Rating))
	assert.Equal(t, "1.2", string(list[0].DistanceKM))
	assert.Equal(t, "open", list[0].Availability())
	assert.Equal(t, "4.9", string(list[1].Rating))
	assert.Equal(t, "3", string(list[1].DistanceKM))
}

func TestParseListFailuresAreEmpty(t *testing.T) {
	for _, text := range []string{"", "sorry, no results", "[not json]", `{"name": "x"}`} {
		list, ok := ParseList(text)
		assert.False(t, ok, text)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	}
}

func TestParseListEmptyArray(t *testing.T) {
	list, ok := ParseList("[]")
	assert.True(t, ok)
	assert.Empty(t, list)
}

func TestParseListNullFields(t *testing.T) {
	list, ok := ParseList(`[{"name": "A", "rating": null, "contact": "555"}, {"name": ""}]`)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "", string(list[0].Rating))
	assert.Equal(t, "555", list[0].Contact)
}
