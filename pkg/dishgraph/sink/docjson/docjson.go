// Package docjson writes nested dish documents as a JSON array.
package docjson

import (
	"encoding/json"
	"io"

	"github.com/cognicore/dishgraph/pkg/dishgraph/nested"
	"github.com/cognicore/dishgraph/pkg/dishgraph/sink"
)

// DefaultFile is the name of the nested output.
const DefaultFile = "dishes.json"

// Encode writes docs to w, indented by four spaces. A nil slice is
// written as [].
func Encode(w io.Writer, docs []nested.Document) error {
	if docs == nil {
		docs = []nested.Document{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(docs)
}

// Write replaces path with the encoded documents.
func Write(path string, docs []nested.Document) error {
	return sink.WriteAtomic(path, func(w io.Writer) error {
		return Encode(w, docs)
	})
}
