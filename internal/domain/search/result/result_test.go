package result

import "testing"

func TestSort_ScoreDescending(t *testing.T) {
	results := []Result{
		New("b", "Beta", 0.5, "", ""),
		New("a", "Alpha", 0.9, "", ""),
		New("c", "Gamma", 0.7, "", ""),
	}

	Sort(results)

	want := []string{"a", "c", "b"}
	for i, id := range want {
		if results[i].ID() != id {
			t.Errorf("position %d: expected %s, got %s", i, id, results[i].ID())
		}
	}
}

func TestSort_TieBreakByName(t *testing.T) {
	results := []Result{
		New("2", "StrReplace", 0.8, "", ""),
		New("1", "StrFind", 0.8, "", ""),
		New("3", "StrLen", 0.8, "", ""),
	}

	Sort(results)

	want := []string{"StrFind", "StrLen", "StrReplace"}
	for i, name := range want {
		if results[i].Name() != name {
			t.Errorf("position %d: expected %s, got %s", i, name, results[i].Name())
		}
	}
}

func TestSort_Deterministic(t *testing.T) {
	build := func() []Result {
		return []Result{
			New("d", "Delta", 0.4, "", ""),
			New("a", "Alpha", 0.9, "", ""),
			New("b", "Beta", 0.9, "", ""),
			New("c", "Gamma", 0.4, "", ""),
		}
	}

	first := build()
	second := build()
	Sort(first)
	Sort(second)

	for i := range first {
		if first[i].ID() != second[i].ID() {
			t.Fatalf("ordering not deterministic at %d: %s vs %s", i, first[i].ID(), second[i].ID())
		}
	}
}

func TestWithScore(t *testing.T) {
	r := New("a", "Alpha", 0.5, "functions", "snippet")
	scaled := r.WithScore(0.25)
	if scaled.Score() != 0.25 {
		t.Errorf("expected 0.25, got %v", scaled.Score())
	}
	if r.Score() != 0.5 {
		t.Error("original result must not be mutated")
	}
	if scaled.Name() != "Alpha" || scaled.Category() != "functions" {
		t.Error("non-score fields must be preserved")
	}
}
