package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// jsonGuard goes last so the model sees the format rule after everything else.
const jsonGuard = `
Jawab HANYA dengan JSON yang valid.
Tidak boleh ada teks di luar JSON.
Jika format dilanggar, jawaban akan dibuang.
`

// AskJSON sends input as a JSON user message and decodes the JSON reply into out.
func AskJSON(ctx context.Context, c AI, systemPrompt string, input any, out any) error {
	b, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}

	raw, err := c.GetReply(ctx, systemPrompt, []Message{
		{Role: RoleUser, Text: string(b)},
		{Role: RoleSystem, Text: jsonGuard},
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(stripFences(raw)), out); err != nil {
		return fmt.Errorf("decode reply %q: %w", Short(raw), err)
	}
	return nil
}

// stripFences removes a ```json ... ``` wrapper some models add anyway.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func Short(s string) string {
	const limit = 180
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
