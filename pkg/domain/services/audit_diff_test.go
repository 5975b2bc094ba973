package services

import (
	"strings"
	"testing"
)

type doc struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

func TestDocumentDiff(t *testing.T) {
	diff, err := DocumentDiff(doc{Name: "Pale Malt", Level: 10}, doc{Name: "Pale Malt", Level: 25})
	if err != nil {
		t.Fatalf("DocumentDiff failed: %v", err)
	}
	if !strings.HasPrefix(diff, "@@") {
		t.Errorf("Expected patch text, got %q", diff)
	}
	if !strings.Contains(diff, "25") {
		t.Errorf("Expected new value in patch, got %q", diff)
	}

	same, err := DocumentDiff(doc{Name: "x"}, doc{Name: "x"})
	if err != nil {
		t.Fatalf("DocumentDiff failed: %v", err)
	}
	if same != "" {
		t.Errorf("Expected empty diff for identical documents, got %q", same)
	}

	created, err := DocumentDiff(nil, doc{Name: "new"})
	if err != nil {
		t.Fatalf("DocumentDiff failed: %v", err)
	}
	if !strings.Contains(created, "new") {
		t.Errorf("Expected created document in patch, got %q", created)
	}
}
