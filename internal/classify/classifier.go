package classify

import (
	"strings"

	"github.com/kpauljoseph/pipespec/pkg/utils"
)

var (
	DefaultPipeKeywords    = []string{"труба", "футляр"}
	DefaultFittingKeywords = []string{"муфта", "отвод", "втулка", "фланец"}
)

// Classifier decides whether a nomenclature line names a pipe or a fitting.
// Matching is a case folded substring check.
type Classifier struct {
	pipeKeywords    []string
	fittingKeywords []string
}

// Default uses the built-in polyethylene pipeline keyword sets.
var Default = New(DefaultPipeKeywords, DefaultFittingKeywords)

func New(pipeKeywords, fittingKeywords []string) *Classifier {
	return &Classifier{
		pipeKeywords:    foldAll(pipeKeywords),
		fittingKeywords: foldAll(fittingKeywords),
	}
}

func (c *Classifier) IsPipe(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	return containsAny(utils.FoldText(text), c.pipeKeywords)
}

func (c *Classifier) IsPipeOrFitting(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	folded := utils.FoldText(text)
	return containsAny(folded, c.pipeKeywords) || containsAny(folded, c.fittingKeywords)
}

func IsPipe(text string) bool {
	return Default.IsPipe(text)
}

func IsPipeOrFitting(text string) bool {
	return Default.IsPipeOrFitting(text)
}

func containsAny(folded string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

func foldAll(keywords []string) []string {
	folded := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		folded = append(folded, utils.FoldText(kw))
	}
	return folded
}
