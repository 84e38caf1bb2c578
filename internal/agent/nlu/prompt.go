package nlu

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/ivy-assistant/server/internal/agent/model"
)

//go:embed template/nlu_prompt.txt
var nluSystemPrompt string

var messagesTemplate = prompt.FromMessages(
	schema.FString,
	schema.MessagesPlaceholder("system_messages", false),
	schema.UserMessage("<current_message_to_analyze>\n{utterance}\n</current_message_to_analyze>"),
)

// renderSystem substitutes the known tokens only, so JSON braces in the
// template survive.
func renderSystem(cfg model.NLUModelConfig, intents []string) string {
	return strings.NewReplacer(
		"{TD}", tupDelim,
		"{RD}", recDelim,
		"{CD}", endDelim,
		"{intents}", "- "+strings.Join(intents, "\n- "),
		"{entities}", cfg.Entities,
	).Replace(nluSystemPrompt)
}

// formatMessages renders the model input through the eino prompt component so
// prompt callbacks fire.
func formatMessages(ctx context.Context, system, utterance string) ([]*schema.Message, error) {
	msgs, err := messagesTemplate.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(system)},
		"utterance":       utterance,
	})
	if err != nil {
		return nil, fmt.Errorf("format nlu prompt: %w", err)
	}
	if len(msgs) < 2 {
		return nil, fmt.Errorf("format nlu prompt: expected system and user messages, got %d", len(msgs))
	}
	return msgs, nil
}
