package seed

import (
	"fmt"

	petname "github.com/dustinkirkland/golang-petname"

	"entref/internal/record"
)

// demoTags cycle through the generated article records.
var demoTags = []string{"news", "sports", "culture", "science"}

// Demo returns a snapshot with sample bundles and n records per kind,
// for local testing and demos. Titles and names are generated pet names,
// so repeated runs produce fresh data.
func Demo(n int) *Snapshot {
	snap := &Snapshot{
		Bundles: []BundleSeed{
			{
				Kind:  string(record.KindContent),
				ID:    "article",
				Label: "Article",
				Fields: []FieldSeed{
					{Name: "title", Label: "Title"},
					{Name: "field_tag", Label: "Tag"},
					{Name: "field_ref", Label: "Reference"},
				},
			},
			{
				Kind:  string(record.KindMedia),
				ID:    "image",
				Label: "Image",
				Fields: []FieldSeed{
					{Name: "name", Label: "Name"},
					{Name: "field_alt", Label: "Alternative text"},
				},
			},
		},
	}

	for i := 0; i < n; i++ {
		title := petname.Generate(2, " ")
		snap.Records = append(snap.Records, RecordSeed{
			ID:        record.NewID().String(),
			Kind:      string(record.KindContent),
			Bundle:    "article",
			Published: true,
			Fields: map[string]record.Scalar{
				"title":     title,
				"field_tag": demoTags[i%len(demoTags)],
				"field_ref": fmt.Sprintf("ref-%03d", i),
			},
		})
	}

	for i := 0; i < n; i++ {
		name := petname.Generate(2, "-")
		snap.Records = append(snap.Records, RecordSeed{
			ID:        record.NewID().String(),
			Kind:      string(record.KindMedia),
			Bundle:    "image",
			Published: true,
			Fields: map[string]record.Scalar{
				"name":      name + ".jpg",
				"field_alt": "photo of a " + petname.Adjective() + " " + petname.Name(),
			},
		})
	}

	return snap
}
