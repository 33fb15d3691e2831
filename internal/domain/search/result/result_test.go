package result

import "testing"

func TestNew(t *testing.T) {
	r := New(3, "hello", 0.95)

	if r.DocumentID() != 3 {
		t.Errorf("DocumentID() = %d", r.DocumentID())
	}
	if r.Text() != "hello" {
		t.Errorf("Text() = %q", r.Text())
	}
	if r.Similarity() != 0.95 {
		t.Errorf("Similarity() = %f", r.Similarity())
	}
}
