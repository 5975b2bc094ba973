package services

import (
	"encoding/json"
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DocumentDiff renders the change between two versions of a document as patch text.
// before may be nil for newly created documents. An empty string means no change.
func DocumentDiff(before, after any) (string, error) {
	beforeText := ""
	if before != nil {
		b, err := json.MarshalIndent(before, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal previous document: %w", err)
		}
		beforeText = string(b)
	}

	a, err := json.MarshalIndent(after, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	afterText := string(a)

	if beforeText == afterText {
		return "", nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(beforeText, afterText, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	patches := dmp.PatchMake(beforeText, diffs)
	return dmp.PatchToText(patches), nil
}
