package language

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/flowmate/ai"
	"github.com/poiesic/flowmate/core"
)

// Apology replaces text that could not be brought into Korean.
const Apology = "죄송합니다. 한국어로만 답변드릴 수 있습니다. 다시 질문해주세요."

// Source script names used in provenance notes.
const (
	SourceChinese = "중국어"
	SourceEnglish = "영어"
)

// Action is what Enforce did with the text.
type Action string

const (
	ActionPassed     Action = "passed"
	ActionTranslated Action = "translated"
	ActionRejected   Action = "rejected"
)

// Outcome is the conformant text and how it was obtained.
type Outcome struct {
	Text   string
	Action Action
	// Source names the detected foreign script when Action is not passed.
	Source string
}

// Thresholds tune detection. Ratios are fractions of content characters.
type Thresholds struct {
	MinContent       int     `yaml:"min_content"`
	PrimaryTarget    float64 `yaml:"primary_target"`
	PrimaryForeign   float64 `yaml:"primary_foreign"`
	SecondaryTarget  float64 `yaml:"secondary_target"`
	SecondaryForeign float64 `yaml:"secondary_foreign"`
}

// DefaultThresholds returns the standard detection thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinContent:       10,
		PrimaryTarget:    0.10,
		PrimaryForeign:   0.30,
		SecondaryTarget:  0.05,
		SecondaryForeign: 0.50,
	}
}

const translationPrompt = `당신은 전문 번역가입니다. 주어진 텍스트를 정확하고 자연스러운 한국어로 번역해주세요.

번역 규칙:
1. 원문의 의미와 뉘앙스를 정확히 보존할 것
2. 자연스럽고 읽기 쉬운 한국어로 번역할 것
3. 전문 용어는 적절한 한국어 용어로 번역할 것
4. 문단 구조와 서식을 유지할 것
5. 번역문만 출력하고 추가 설명은 하지 말 것

번역할 텍스트:
%s

한국어 번역:`

// Enforcer is the language conformance enforcer.
type Enforcer struct {
	translator  ai.Generator
	thresholds  Thresholds
	temperature float64
	maxTokens   int
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures an Enforcer.
type Option func(*Enforcer)

// WithThresholds replaces the detection thresholds.
func WithThresholds(t Thresholds) Option {
	return func(e *Enforcer) {
		e.thresholds = t
	}
}

// WithTemperature sets the translation sampling temperature.
func WithTemperature(temp float64) Option {
	return func(e *Enforcer) {
		e.temperature = temp
	}
}

// WithMaxTokens bounds the translation length. Zero leaves it to the model.
func WithMaxTokens(n int) Option {
	return func(e *Enforcer) {
		e.maxTokens = n
	}
}

// WithTimeout bounds one translation call.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Enforcer) {
		e.timeout = timeout
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enforcer) {
		e.logger = logger
	}
}

// New creates an enforcer that retranslates through translator.
func New(translator ai.Generator, opts ...Option) *Enforcer {
	e := &Enforcer{
		translator:  translator,
		thresholds:  DefaultThresholds(),
		temperature: 0.1,
		timeout:     30 * time.Second,
		logger:      slog.Default().With("component", "language"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Detect returns the foreign script that makes text non-conformant, or ""
// when text passes.
func (e *Enforcer) Detect(text string) string {
	c := Analyze(text)
	if c.Content < e.thresholds.MinContent {
		return ""
	}
	target := c.ratio(c.Hangul)
	if target < e.thresholds.PrimaryTarget && c.ratio(c.Han) > e.thresholds.PrimaryForeign {
		return SourceChinese
	}
	if target < e.thresholds.SecondaryTarget && c.ratio(c.LatinRuns) > e.thresholds.SecondaryForeign {
		return SourceEnglish
	}
	return ""
}

// Enforce returns text unchanged when it conforms, a translation with a
// provenance note when translation succeeds, or Apology. A failing
// translation is a normal outcome; errors are reserved for a missing
// translator or a cancelled context and wrap core.ErrValidationFailure.
func (e *Enforcer) Enforce(ctx context.Context, text string) (Outcome, error) {
	source := e.Detect(text)
	if source == "" {
		return Outcome{Text: text, Action: ActionPassed}, nil
	}
	if e.translator == nil {
		return Outcome{}, fmt.Errorf("%w: no translator configured", core.ErrValidationFailure)
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", core.ErrValidationFailure, err)
	}

	logger := e.logger.With("source", source)
	logger.Info("non-conformant response detected, translating")

	translated, err := e.translate(ctx, text)
	if err != nil {
		logger.Warn("translation failed", "err", err)
		return Outcome{Text: Apology, Action: ActionRejected, Source: source}, nil
	}
	if !HasHangul(translated) {
		logger.Warn("translation contains no Korean")
		return Outcome{Text: Apology, Action: ActionRejected, Source: source}, nil
	}
	return Outcome{
		Text:   translated + "\n\n💡 원본이 " + source + "로 생성되어 한국어로 번역하였습니다.",
		Action: ActionTranslated,
		Source: source,
	}, nil
}

func (e *Enforcer) translate(ctx context.Context, text string) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	out, err := e.translator.Generate(ctx, fmt.Sprintf(translationPrompt, text), ai.GenerateOptions{
		MaxTokens:   e.maxTokens,
		Temperature: ai.Float(e.temperature),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
