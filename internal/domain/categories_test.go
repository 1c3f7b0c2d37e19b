package domain

import "testing"

func TestKnownCategory(t *testing.T) {
	for _, category := range Categories() {
		if !KnownCategory(string(category)) {
			t.Fatalf("категория %q должна входить в закрытый набор", category)
		}
	}
	for _, tag := range []string{"", "thriller", "Action", "sci-fi"} {
		if KnownCategory(tag) {
			t.Fatalf("тег %q не должен считаться категорией", tag)
		}
	}
}
