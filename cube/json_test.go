package cube

import (
	"math"
	"testing"
	"time"
)

func TestJSONRoundtrip(t *testing.T) {
	in := &Cube{Rows: 2, Cols: 1, Layers: []Layer{
		{Name: "LC82300702014001LGN00", Time: time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC), Values: []float64{1.5, math.NaN()}},
		{Name: "LC82300702014017LGN00", Values: []float64{-3, 0}},
	}}

	out, err := UnmarshalJSON(MarshalJSON(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Rows != 2 || out.Cols != 1 || len(out.Layers) != 2 {
		t.Fatalf("shape lost: %+v", out)
	}
	if out.Layers[0].Name != in.Layers[0].Name || !out.Layers[0].Time.Equal(in.Layers[0].Time) {
		t.Fatalf("metadata lost: %+v", out.Layers[0])
	}
	if !out.Layers[1].Time.IsZero() {
		t.Fatalf("zero time not preserved: %v", out.Layers[1].Time)
	}
	if out.Layers[0].Values[0] != 1.5 || !math.IsNaN(out.Layers[0].Values[1]) {
		t.Fatalf("values lost: %v", out.Layers[0].Values)
	}
	if out.Layers[1].Values[0] != -3 || out.Layers[1].Values[1] != 0 {
		t.Fatalf("values lost: %v", out.Layers[1].Values)
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	for _, doc := range []string{
		"",
		"{",
		`{"rows":1,"cols":1,"layers":[{"name":"a","values":[1,2]}]}`, // wrong length
		`{"rows":1,"cols":1,"layers":[]}`,
		`{"rows":1,"cols":1,"layers":[{"name":"a","time":"not-a-time","values":[1]}]}`,
		`{"rows":1,"cols":1,"layers":[{"name":"a","values":["x"]}]}`,
	} {
		if _, err := UnmarshalJSON([]byte(doc)); err == nil {
			t.Errorf("UnmarshalJSON(%q) expected error", doc)
		}
	}
}
