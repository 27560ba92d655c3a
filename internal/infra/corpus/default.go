package corpus

import (
	_ "embed"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

//go:embed default_corpus.yaml
var defaultCorpus []byte

// Default returns the built-in career guidance corpus, used when no corpus
// path is configured.
func Default() []domain.CorpusEntry {
	entries, err := Parse(".yaml", defaultCorpus)
	if err != nil {
		panic("corpus: built-in corpus is invalid: " + err.Error())
	}
	return entries
}
