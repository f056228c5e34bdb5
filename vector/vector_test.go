package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scaled", []float32{1, 2}, []float32{2, 4}, 1},
		{"mismatched length", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	vec := Normalize([]float32{3, 4})
	if math.Abs(float64(vec[0]-0.6)) > 1e-6 || math.Abs(float64(vec[1]-0.8)) > 1e-6 {
		t.Errorf("Normalize() = %v, want [0.6 0.8]", vec)
	}

	zero := Normalize([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("Normalize(zero) = %v, want unchanged", zero)
	}

	if got := Normalize(nil); len(got) != 0 {
		t.Errorf("Normalize(nil) = %v", got)
	}
}

func TestEmbeddingClone(t *testing.T) {
	emb := &Embedding{
		ID:       "channel:twitter",
		Vector:   []float32{1, 2, 3},
		Text:     "channel: twitter",
		Metadata: map[string]string{"filter_name": "channel"},
	}

	cloned := emb.Clone()
	cloned.Vector[0] = 99
	cloned.Metadata["filter_name"] = "goal"

	if emb.Vector[0] != 1 {
		t.Error("Clone() shares the vector with the original")
	}
	if emb.Metadata["filter_name"] != "channel" {
		t.Error("Clone() shares metadata with the original")
	}

	var nilEmb *Embedding
	if nilEmb.Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}
}
