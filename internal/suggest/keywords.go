package suggest

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/sift-money/sift/internal/similarity"
	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var embeddedKeywords []byte

// KeywordEntry maps description keywords to a category name.
type KeywordEntry struct {
	Category string   `yaml:"category"`
	Type     string   `yaml:"type"`
	Match    []string `yaml:"match"`
}

type keywordTable struct {
	Entries []KeywordEntry `yaml:"keywords"`
}

var (
	keywordOnce sync.Once
	keywords    []KeywordEntry
)

// loadKeywords parses the embedded table once. The table is fixed at build
// time; a broken embed is a programmer error and panics at first use.
func loadKeywords() []KeywordEntry {
	keywordOnce.Do(func() {
		var table keywordTable
		if err := yaml.Unmarshal(embeddedKeywords, &table); err != nil {
			panic("suggest: invalid embedded keywords.yaml: " + err.Error())
		}
		keywords = table.Entries
	})
	return keywords
}

// lookupKeyword returns the first table entry whose keywords appear in the
// description, with the keyword that hit.
func lookupKeyword(description string) (*KeywordEntry, string) {
	normalized := similarity.Normalize(description)
	entries := loadKeywords()
	for i := range entries {
		entry := &entries[i]
		for _, keyword := range entry.Match {
			if strings.Contains(normalized, strings.ToLower(keyword)) {
				return entry, keyword
			}
		}
	}
	return nil, ""
}
