package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// TitlesCollection is the single collection holding every todo title.
const TitlesCollection = "todo_titles"

// TitleShape is the layout a titles envelope was found in.
type TitleShape int

const (
	// ShapeWrapped is {"titles": [...]}, the only layout ever written.
	ShapeWrapped TitleShape = iota
	// ShapeBareArray is a bare [...] left by older writers.
	ShapeBareArray
	// ShapeBareObject is a single title object left by older writers.
	ShapeBareObject
)

func (s TitleShape) String() string {
	switch s {
	case ShapeWrapped:
		return "wrapped"
	case ShapeBareArray:
		return "bare-array"
	case ShapeBareObject:
		return "bare-object"
	}
	return fmt.Sprintf("TitleShape(%d)", int(s))
}

type titlesEnvelope struct {
	Titles []TodoTitle `json:"titles"`
}

// DecodeTitles reads a titles value in any known layout and reports which one
// it was. Callers upgrade legacy layouts simply by writing EncodeTitles back.
func DecodeTitles(value string) ([]TodoTitle, TitleShape, error) {
	data := bytes.TrimSpace([]byte(value))
	if len(data) == 0 {
		return nil, ShapeWrapped, errors.New("empty titles value")
	}

	switch data[0] {
	case '[':
		var titles []TodoTitle
		if err := json.Unmarshal(data, &titles); err != nil {
			return nil, ShapeBareArray, fmt.Errorf("decode titles array: %w", err)
		}
		return nonNil(titles), ShapeBareArray, nil

	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, ShapeWrapped, fmt.Errorf("decode titles object: %w", err)
		}
		if _, ok := probe["titles"]; ok {
			var env titlesEnvelope
			if err := json.Unmarshal(data, &env); err != nil {
				return nil, ShapeWrapped, fmt.Errorf("decode titles wrapper: %w", err)
			}
			return nonNil(env.Titles), ShapeWrapped, nil
		}
		var one TodoTitle
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, ShapeBareObject, fmt.Errorf("decode title: %w", err)
		}
		if one.ID == "" && one.Name == "" {
			return nil, ShapeBareObject, errors.New("title object has neither id nor name")
		}
		return []TodoTitle{one}, ShapeBareObject, nil
	}

	return nil, ShapeWrapped, fmt.Errorf("unrecognized titles value starting with %q", data[0])
}

// EncodeTitles writes the canonical wrapped layout.
func EncodeTitles(titles []TodoTitle) (string, error) {
	return Encode(titlesEnvelope{Titles: nonNil(titles)})
}

func nonNil(titles []TodoTitle) []TodoTitle {
	if titles == nil {
		return []TodoTitle{}
	}
	return titles
}
