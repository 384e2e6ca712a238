package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"quizforge/internal/question"
)

var (
	ErrAPIKeyMissing        = errors.New("generative model api key is not configured")
	ErrModelResponse        = errors.New("model did not return a json question array")
	ErrNoQuestionsGenerated = errors.New("model returned no questions")
)

const promptTemplate = `You are a quiz generator. Read the source text below and produce multiple-choice questions from it.

Rules:
1. Ignore navigation menus, advertisements, and any other non-content noise in the text.
2. Convert subjective or open-ended material into questions with exactly four answer options.
3. If the text does not state a correct answer, invent a plausible one.
4. Respond with ONLY a JSON array of objects, no prose and no Markdown. Each object must have exactly these keys: "question_text", "option_a", "option_b", "option_c", "option_d", "correct_option". The value of "correct_option" must be a single letter A, B, C, or D.

Source text:
%s`

type ServiceConfig struct {
	Provider      string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	HTTPClient    *http.Client
}

type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	gen generator
}

func NewService(cfg ServiceConfig) *Service {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		return &Service{gen: newOpenAIGenerator(cfg)}
	default:
		return &Service{gen: newGeminiGenerator(cfg)}
	}
}

// GenerateQuestions asks the configured model to turn free-form source text
// into question rows. The model output is validated and normalized before
// anything reaches a caller; a clean parse with zero records is refused so an
// import never proceeds with nothing to write.
func (s *Service) GenerateQuestions(ctx context.Context, sourceText string) ([]question.Input, error) {
	raw, err := s.gen.Generate(ctx, buildPrompt(sourceText))
	if err != nil {
		return nil, err
	}

	items, err := parseModelResponse(raw)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoQuestionsGenerated
	}
	return items, nil
}

func buildPrompt(sourceText string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(sourceText))
}

func parseModelResponse(raw string) ([]question.Input, error) {
	cleaned := stripCodeFences(raw)

	var records []map[string]any
	if err := json.Unmarshal([]byte(cleaned), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelResponse, err)
	}

	items := make([]question.Input, 0, len(records))
	for _, rec := range records {
		items = append(items, normalizeRecord(rec))
	}
	return items, nil
}

// stripCodeFences removes a Markdown ```json / ``` wrapper when the model
// ignores the no-Markdown instruction.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// normalizeRecord maps one model-produced object onto a question input.
// Keys are matched case-insensitively and every missing or empty field gets
// a placeholder instead of failing the whole batch.
func normalizeRecord(rec map[string]any) question.Input {
	fields := make(map[string]string, len(rec))
	for k, v := range rec {
		fields[normalizeHeader(k)] = toString(v)
	}
	return inputFromFields(func(key string) string { return fields[key] })
}

func inputFromFields(get func(string) string) question.Input {
	withDefault := func(key, fallback string) string {
		if v := strings.TrimSpace(get(key)); v != "" {
			return v
		}
		return fallback
	}
	return question.Input{
		QuestionText:  withDefault("question_text", "Question text missing"),
		OptionA:       withDefault("option_a", "-"),
		OptionB:       withDefault("option_b", "-"),
		OptionC:       withDefault("option_c", "-"),
		OptionD:       withDefault("option_d", "-"),
		CorrectOption: question.NormalizeCorrectOption(get("correct_option")),
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
