package codec

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTitles_Shapes(t *testing.T) {
	groceries := TodoTitle{ID: "1", Name: "Groceries"}
	chores := TodoTitle{ID: "2", Name: "Chores"}

	tests := []struct {
		name  string
		value string
		want  []TodoTitle
		shape TitleShape
	}{
		{
			name:  "wrapped",
			value: `{"titles":[{"id":"1","name":"Groceries"},{"id":"2","name":"Chores"}]}`,
			want:  []TodoTitle{groceries, chores},
			shape: ShapeWrapped,
		},
		{
			name:  "wrapped empty",
			value: `{"titles":null}`,
			want:  []TodoTitle{},
			shape: ShapeWrapped,
		},
		{
			name:  "bare array",
			value: ` [{"id":"1","name":"Groceries"}]`,
			want:  []TodoTitle{groceries},
			shape: ShapeBareArray,
		},
		{
			name:  "bare object",
			value: `{"id":"2","name":"Chores"}`,
			want:  []TodoTitle{chores},
			shape: ShapeBareObject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, shape, err := DecodeTitles(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, shape)
			assert.Empty(t, cmp.Diff(tt.want, got))
		})
	}
}

func TestDecodeTitles_Errors(t *testing.T) {
	for _, v := range []string{"", "  ", `"x"`, `{"other":1}`, `[{"id":`, `{"titles":"nope"}`} {
		_, _, err := DecodeTitles(v)
		assert.Error(t, err, "value %q", v)
	}
}

func TestEncodeTitles_AlwaysWrapped(t *testing.T) {
	for _, legacy := range []string{
		`[{"id":"1","name":"Groceries"}]`,
		`{"id":"1","name":"Groceries"}`,
		`{"titles":[{"id":"1","name":"Groceries"}]}`,
	} {
		titles, _, err := DecodeTitles(legacy)
		require.NoError(t, err)

		value, err := EncodeTitles(titles)
		require.NoError(t, err)
		assert.JSONEq(t, `{"titles":[{"id":"1","name":"Groceries"}]}`, value)

		again, shape, err := DecodeTitles(value)
		require.NoError(t, err)
		assert.Equal(t, ShapeWrapped, shape)
		assert.Empty(t, cmp.Diff(titles, again))
	}

	empty, err := EncodeTitles(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"titles":[]}`, empty)
}

func TestTitleShape_String(t *testing.T) {
	assert.Equal(t, "wrapped", ShapeWrapped.String())
	assert.Equal(t, "bare-array", ShapeBareArray.String())
	assert.Equal(t, "bare-object", ShapeBareObject.String())
	assert.Equal(t, "TitleShape(9)", TitleShape(9).String())
}
