package parser

import (
	"regexp"
	"strings"

	"github.com/starford/doclife/internal/models"
)

var (
	checkedRe   = regexp.MustCompile(`\[(?:x|X|✓|✔|✅|☑)\]`)
	uncheckedRe = regexp.MustCompile(`\[(?: |-)\]`)
)

// Checklist counts checklist markers in content. Every marker occurrence
// counts once, wherever it sits on its line.
func Checklist(content []byte) models.Completion {
	var checked, unchecked int
	for _, line := range strings.Split(string(content), "\n") {
		checked += len(checkedRe.FindAllStringIndex(line, -1))
		unchecked += len(uncheckedRe.FindAllStringIndex(line, -1))
	}
	return models.NewCompletion(checked, unchecked)
}
