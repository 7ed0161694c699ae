package openrouter

import (
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fodder-io/masticator/internal/core/domain"
)

func TestBuildMessagesGenericMode(t *testing.T) {
	profile := domain.PromptProfile{Mode: domain.ModeGeneric}

	messages := BuildMessages("file body", "note.txt", profile)
	if len(messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(messages))
	}
	if messages[0].Role != openai.ChatMessageRoleUser {
		t.Fatalf("role = %s, want user", messages[0].Role)
	}
	if !strings.Contains(messages[0].Content, "note.txt") || !strings.Contains(messages[0].Content, "file body") {
		t.Fatalf("prompt missing filename or content:\n%s", messages[0].Content)
	}
}

func TestBuildMessagesIncludesSystemPrompt(t *testing.T) {
	profile := domain.PromptProfile{Mode: domain.ModeGeneric, SystemPrompt: "You are terse."}

	messages := BuildMessages("x", "a.txt", profile)
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	if messages[0].Role != openai.ChatMessageRoleSystem || messages[0].Content != "You are terse." {
		t.Fatalf("unexpected system message: %+v", messages[0])
	}
}

func TestBuildMessagesClassificationMode(t *testing.T) {
	profile := domain.PromptProfile{
		Mode:       domain.ModeClassification,
		Categories: []string{"recipes", "misc"},
		Guidelines: map[string]string{"recipes": "Cooking instructions."},
	}

	messages := BuildMessages("banana bread", "note.txt", profile)
	prompt := messages[len(messages)-1].Content

	for _, want := range []string{
		"CLASSIFICATION TASK",
		"- recipes: Cooking instructions.",
		"- misc: No description available",
		"CONTENT TO CLASSIFY (from file: note.txt)",
		"banana bread",
		`"category": "string"`,
		"Only output the JSON object",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("classification prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildMessagesIsDeterministic(t *testing.T) {
	profile := domain.PromptProfile{
		Mode:       domain.ModeClassification,
		Categories: []string{"recipes", "misc"},
	}

	a := BuildMessages("content", "f.txt", profile)
	b := BuildMessages("content", "f.txt", profile)
	if a[0].Content != b[0].Content {
		t.Fatalf("prompt construction is not deterministic")
	}
}
