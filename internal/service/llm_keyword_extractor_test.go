package service

import (
	"context"
	"strings"
	"testing"

	"matchmaker/internal/domain"
	"matchmaker/internal/llm"
)

func TestParseKeywordList(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "object", raw: `{"keywords":["go","rust"]}`, want: []string{"go", "rust"}},
		{name: "fenced array", raw: "```json\n[\"ml\", \"python\"]\n```", want: []string{"ml", "python"}},
		{name: "prose around", raw: `Sure! {"keywords":["a {b}"]} hope it helps`, want: []string{"a {b}"}},
		{name: "no json", raw: "I cannot help", wantErr: true},
		{name: "wrong type", raw: `{"keywords":"go"}`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseKeywordList(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tc.want, "|") {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestExtractFirstJSON(t *testing.T) {
	cases := map[string]string{
		`x {"a":[1,2]} y`:     `{"a":[1,2]}`,
		`[1,[2]] tail`:        `[1,[2]]`,
		`{"s":"}\"]"}`:        `{"s":"}\"]"}`,
		`{"a":[1}`:            ``,
		`nothing`:             ``,
	}
	for in, want := range cases {
		if got := extractFirstJSON(in); got != want {
			t.Fatalf("extractFirstJSON(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestLLMKeywordExtractor_PromptCarriesProfile(t *testing.T) {
	mock := &llm.MockClient{Response: `{"keywords":["go"]}`}
	ex := NewLLMKeywordExtractor(mock)

	got, err := ex.Extract(context.Background(), domain.Profile{
		Goal:           "find a cofounder",
		Skills:         []string{"Go", "Postgres"},
		ConnectionType: domain.ConnectionCollaborators,
	})
	if err != nil || len(got) != 1 || got[0] != "go" {
		t.Fatalf("unexpected result %v, %v", got, err)
	}
	prompts := mock.Prompts()
	if len(prompts) != 1 || !strings.Contains(prompts[0], "Skills: Go, Postgres") || !strings.Contains(prompts[0], "Goal: find a cofounder") {
		t.Fatalf("prompt missing profile data: %v", prompts)
	}
}
