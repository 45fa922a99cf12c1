package docstore_test

import (
	"time"

	"github.com/docstore/docstore.go/pkg/codec"
)

// testUser is the timestamped record type most tests run against.
type testUser struct {
	Name string   `json:"name"`
	Age  int      `json:"age,omitempty"`
	Tags []string `json:"tags,omitempty"`
}

var userDesc = codec.Descriptor[testUser]{
	Root:       "version",
	Version:    "1",
	Name:       "user",
	Timestamps: true,
	Fields: map[string]string{
		"Name": "name",
		"Age":  "age",
		"Tags": "tags",
	},
}

// testNote has no audit fields.
type testNote struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

var noteDesc = codec.Descriptor[testNote]{
	Root:    "version",
	Version: "1",
	Name:    "note",
	Fields: map[string]string{
		"Title": "title",
		"Body":  "body",
	},
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
