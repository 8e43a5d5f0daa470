package chat

import (
	"strings"

	"github.com/spec-kit/onsite-notifier/internal/domain"
)

// cardPayload renders a domain card into the chat platform's interactive
// message schema: a colored header, divider-separated markdown blocks, and a
// single button action.
func cardPayload(card *domain.Card) map[string]any {
	elements := make([]any, 0, len(card.Blocks)*2+1)
	for i, block := range card.Blocks {
		if i > 0 {
			elements = append(elements, map[string]any{"tag": "hr"})
		}
		elements = append(elements, map[string]any{
			"tag": "div",
			"text": map[string]any{
				"tag":     "lark_md",
				"content": strings.Join(block.Lines, "\n"),
			},
		})
	}
	if card.Action.URL != "" {
		elements = append(elements, map[string]any{
			"tag": "action",
			"actions": []any{
				map[string]any{
					"tag":  "button",
					"text": map[string]any{"tag": "plain_text", "content": card.Action.Text},
					"url":  card.Action.URL,
					"type": "primary",
				},
			},
		})
	}
	return map[string]any{
		"config": map[string]any{"wide_screen_mode": true},
		"header": map[string]any{
			"template": card.Template,
			"title":    map[string]any{"tag": "plain_text", "content": card.Title},
		},
		"elements": elements,
	}
}
