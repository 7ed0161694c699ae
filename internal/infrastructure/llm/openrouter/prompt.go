package openrouter

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fodder-io/masticator/internal/core/domain"
)

// BuildMessages composes the chat message list for one file. It is pure:
// same content, filename and profile always produce the same messages.
func BuildMessages(content, filename string, profile domain.PromptProfile) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, 2)

	if profile.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: profile.SystemPrompt,
		})
	}

	var user string
	if profile.Mode == domain.ModeClassification {
		user = buildClassificationPrompt(content, filename, profile)
	} else {
		user = fmt.Sprintf("Process the following content from file '%s':\n\n%s", filename, content)
	}

	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})
}

func buildClassificationPrompt(content, filename string, profile domain.PromptProfile) string {
	var b strings.Builder

	b.WriteString("CLASSIFICATION TASK\n\n")
	b.WriteString("Analyze the following content and classify it into one of these categories:\n\n")
	for _, category := range profile.Categories {
		fmt.Fprintf(&b, "- %s: %s\n", category, profile.Guideline(category))
	}

	fmt.Fprintf(&b, "\nCONTENT TO CLASSIFY (from file: %s):\n\n%s\n", filename, content)

	b.WriteString(`
RESPONSE FORMAT REQUIREMENTS:
You MUST respond with a valid JSON object using this exact structure:
{
    "category": "string",
    "confidence": number,
    "subcategory": "string|null",
    "summary": "string",
    "tags": ["array", "of", "tags"]
}

IMPORTANT: Only output the JSON object, nothing else. Do not include any explanatory text.
`)

	return b.String()
}
