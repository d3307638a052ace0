package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"matchmaker/internal/domain"
	"matchmaker/internal/llm"
)

const keywordPrompt = `You are a professional networking search assistant.
Extract a concise list of keywords to search for relevant people or jobs.

Rules:
- Favor roles, skills, domains and organizations.
- Avoid generic words like "student", "member", "learning".
- Use short searchable phrases (1-3 words), most relevant first.

Profile (context only, do not repeat):
<<<
%s
>>>

Return ONLY JSON: {"keywords": ["...", "..."]}`

// LLMKeywordExtractor pide las keywords directamente al LLM configurado.
type LLMKeywordExtractor struct {
	client llm.LLMClient
}

func NewLLMKeywordExtractor(client llm.LLMClient) *LLMKeywordExtractor {
	return &LLMKeywordExtractor{client: client}
}

func (e *LLMKeywordExtractor) Extract(ctx context.Context, profile domain.Profile) ([]string, error) {
	raw, err := e.client.Generate(ctx, fmt.Sprintf(keywordPrompt, profileText(profile)))
	if err != nil {
		return nil, err
	}
	return parseKeywordList(raw)
}

func profileText(p domain.Profile) string {
	var b strings.Builder
	writeLine := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, strings.TrimSpace(value))
		}
	}
	writeLine("About", p.About)
	writeLine("Goal", p.Goal)
	writeLine("Skills", strings.Join(p.Skills, ", "))
	writeLine("Projects", p.Projects)
	writeLine("Looking for", string(p.ConnectionType))
	writeLine("Engagement", string(p.EngagementType))
	writeLine("Location", p.Location)
	return b.String()
}

// parseKeywordList acepta {"keywords": [...]} o un array suelto, con o sin fences.
func parseKeywordList(raw string) ([]string, error) {
	doc := extractFirstJSON(cleanLLMJSONResponse(raw))
	if doc == "" {
		return nil, fmt.Errorf("no json in llm keyword response")
	}
	if strings.HasPrefix(doc, "[") {
		var list []string
		if err := json.Unmarshal([]byte(doc), &list); err != nil {
			return nil, fmt.Errorf("parse keyword array: %w", err)
		}
		return list, nil
	}
	var payload struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		return nil, fmt.Errorf("parse keyword object: %w", err)
	}
	return payload.Keywords, nil
}
