package shape

import (
	"github.com/matzehuels/garmushka/pkg/geometry"
	"github.com/matzehuels/garmushka/pkg/units"
)

// Document is the lossless serialized form of a Shape, used by session
// payloads and JSON export.
type Document struct {
	Meta
	Kind   Kind             `json:"kind"`
	Points []geometry.Point `json:"points"`
	Length float64          `json:"length,omitempty"`
	Unit   units.Unit       `json:"unit,omitempty"`
}

// Encode converts s to its serialized form.
func Encode(s Shape) Document {
	d := Document{Meta: s.Meta(), Kind: s.Kind(), Points: s.Points()}
	if c, ok := s.(Calibration); ok {
		d.Length, d.Unit = c.DeclaredLength()
	}
	return d
}

// Decode rebuilds a Shape, running the same validation as the constructors.
func (d Document) Decode() (Shape, error) {
	return New(d.Kind, d.Meta, d.Points, d.Length, d.Unit)
}

// EncodeAll encodes a shape list in order.
func EncodeAll(shapes []Shape) []Document {
	docs := make([]Document, len(shapes))
	for i, s := range shapes {
		docs[i] = Encode(s)
	}
	return docs
}

// DecodeAll decodes a document list, failing on the first invalid entry.
func DecodeAll(docs []Document) ([]Shape, error) {
	shapes := make([]Shape, 0, len(docs))
	for _, d := range docs {
		s, err := d.Decode()
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, s)
	}
	return shapes, nil
}
