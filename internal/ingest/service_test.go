package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"quizforge/internal/question"
)

type stubGenerator struct {
	out string
	err error

	gotPrompt string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.gotPrompt = prompt
	return g.out, g.err
}

func TestGenerateQuestionsParsesPlainArray(t *testing.T) {
	svc := &Service{gen: &stubGenerator{
		out: `[{"question_text":"2+2?","option_a":"3","option_b":"4","option_c":"5","option_d":"6","correct_option":"B"}]`,
	}}

	items, err := svc.GenerateQuestions(context.Background(), "arithmetic basics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	want := question.Input{QuestionText: "2+2?", OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "6", CorrectOption: "B"}
	if items[0] != want {
		t.Fatalf("got %+v, want %+v", items[0], want)
	}
}

func TestGenerateQuestionsFencedMatchesUnfenced(t *testing.T) {
	payload := `[{"question_text":"Q1","option_a":"x","option_b":"y","option_c":"z","option_d":"w","correct_option":"C"}]`

	variants := map[string]string{
		"unfenced":     payload,
		"json fence":   "```json\n" + payload + "\n```",
		"bare fence":   "```\n" + payload + "\n```",
		"padded fence": "  ```json\n" + payload + "\n```  ",
	}

	var reference []question.Input
	for name, raw := range variants {
		svc := &Service{gen: &stubGenerator{out: raw}}
		items, err := svc.GenerateQuestions(context.Background(), "src")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if reference == nil {
			reference = items
			continue
		}
		if len(items) != len(reference) || items[0] != reference[0] {
			t.Fatalf("%s: fenced parse diverged: %+v vs %+v", name, items, reference)
		}
	}
}

func TestGenerateQuestionsDefaultsMissingFields(t *testing.T) {
	svc := &Service{gen: &stubGenerator{
		out: `[
			{"question_text":"Q1","option_a":"x","option_b":"y","option_c":"z","option_d":"w"},
			{"option_a":"only option"},
			{"question_text":"Q3","option_a":42,"correct_option":"d"}
		]`,
	}}

	items, err := svc.GenerateQuestions(context.Background(), "src")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	if items[0].CorrectOption != "A" {
		t.Fatalf("missing correct_option must default to A, got %q", items[0].CorrectOption)
	}
	if items[1].QuestionText != "Question text missing" {
		t.Fatalf("missing text must get placeholder, got %q", items[1].QuestionText)
	}
	if items[1].OptionB != "-" || items[1].OptionC != "-" || items[1].OptionD != "-" {
		t.Fatalf("missing options must default to dash, got %+v", items[1])
	}
	if items[2].OptionA != "42" {
		t.Fatalf("numeric option must be coerced to text, got %q", items[2].OptionA)
	}
	if items[2].CorrectOption != "D" {
		t.Fatalf("lowercase correct_option must be normalized, got %q", items[2].CorrectOption)
	}
}

func TestGenerateQuestionsToleratesMixedKeyCasing(t *testing.T) {
	svc := &Service{gen: &stubGenerator{
		out: `[{"Question_Text":"Q1","OPTION_A":"x","Option_B":"y","option_c":"z","Option_D":"w","Correct_Option":"b"}]`,
	}}

	items, err := svc.GenerateQuestions(context.Background(), "src")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := items[0]
	if got.QuestionText != "Q1" || got.OptionA != "x" || got.OptionB != "y" || got.CorrectOption != "B" {
		t.Fatalf("mixed-case keys not normalized: %+v", got)
	}
}

func TestGenerateQuestionsRejectsProse(t *testing.T) {
	svc := &Service{gen: &stubGenerator{out: "Sorry, I cannot help with that."}}

	_, err := svc.GenerateQuestions(context.Background(), "src")
	if !errors.Is(err, ErrModelResponse) {
		t.Fatalf("expected ErrModelResponse, got %v", err)
	}
}

func TestGenerateQuestionsEmptyArray(t *testing.T) {
	svc := &Service{gen: &stubGenerator{out: "[]"}}

	_, err := svc.GenerateQuestions(context.Background(), "src")
	if !errors.Is(err, ErrNoQuestionsGenerated) {
		t.Fatalf("expected ErrNoQuestionsGenerated, got %v", err)
	}
}

func TestGenerateQuestionsPropagatesGeneratorError(t *testing.T) {
	svc := &Service{gen: &stubGenerator{err: ErrAPIKeyMissing}}

	_, err := svc.GenerateQuestions(context.Background(), "src")
	if !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("expected ErrAPIKeyMissing, got %v", err)
	}
}

func TestGeminiGeneratorRequiresKey(t *testing.T) {
	svc := NewService(ServiceConfig{})

	_, err := svc.GenerateQuestions(context.Background(), "src")
	if !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("expected ErrAPIKeyMissing without configuration, got %v", err)
	}
}

func TestOpenAIGeneratorRequiresKey(t *testing.T) {
	svc := NewService(ServiceConfig{Provider: "openai"})

	_, err := svc.GenerateQuestions(context.Background(), "src")
	if !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("expected ErrAPIKeyMissing without configuration, got %v", err)
	}
}

func TestBuildPromptEmbedsSourceAndKeys(t *testing.T) {
	gen := &stubGenerator{out: "[]"}
	svc := &Service{gen: gen}

	_, _ = svc.GenerateQuestions(context.Background(), "  photosynthesis notes  ")

	if !strings.Contains(gen.gotPrompt, "photosynthesis notes") {
		t.Fatalf("prompt must embed the source text: %q", gen.gotPrompt)
	}
	for _, key := range []string{"question_text", "option_a", "option_b", "option_c", "option_d", "correct_option"} {
		if !strings.Contains(gen.gotPrompt, key) {
			t.Fatalf("prompt must name key %q", key)
		}
	}
}
