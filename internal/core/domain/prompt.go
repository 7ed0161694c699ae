package domain

// PromptMode is fixed once at configuration load: a config with a
// classification section classifies, anything else gets the generic
// processing prompt. It is never re-inferred per file.
type PromptMode string

const (
	ModeGeneric        PromptMode = "generic"
	ModeClassification PromptMode = "classification"
)

// PromptProfile carries everything the prompt builder needs to render the
// message list for one file.
type PromptProfile struct {
	Mode         PromptMode
	SystemPrompt string
	Categories   []string
	Guidelines   map[string]string
}

func (p PromptProfile) Guideline(category string) string {
	if g, ok := p.Guidelines[category]; ok && g != "" {
		return g
	}
	return "No description available"
}
