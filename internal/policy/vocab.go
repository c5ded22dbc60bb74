// Package policy turns free text into typed constraints and actions and
// evaluates actions against the constraints a user has on file.
package policy

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	wardenotel "github.com/wardenhq/warden/internal/otel"
)

var tracer = wardenotel.Tracer("github.com/wardenhq/warden/internal/policy")

//go:embed vocabulary.yaml
var vocabularyYAML []byte

// Vocabulary holds the keyword sets the parser and classifier match on.
// Declaration and classification keep separate share/data sets: a few words
// ("give", "upload", "csv") are meaningful on one side only.
type Vocabulary struct {
	Declare struct {
		ShareVerbs []string `yaml:"share_verbs"`
		DataNouns  []string `yaml:"data_nouns"`
	} `yaml:"declare"`
	Classify struct {
		Meeting    []string `yaml:"meeting"`
		ShareVerbs []string `yaml:"share_verbs"`
		DataNouns  []string `yaml:"data_nouns"`
		Spend      []string `yaml:"spend"`
	} `yaml:"classify"`
}

var vocab = mustLoadVocabulary()

func mustLoadVocabulary() Vocabulary {
	var v Vocabulary
	if err := yaml.Unmarshal(vocabularyYAML, &v); err != nil {
		panic(fmt.Sprintf("parsing embedded vocabulary: %v", err))
	}
	return v
}

// containsAny reports whether the normalized text contains any of the words.
func containsAny(normalized string, words []string) bool {
	for _, w := range words {
		if strings.Contains(normalized, w) {
			return true
		}
	}
	return false
}
