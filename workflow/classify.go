package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/poiesic/flowmate/ai"
	"github.com/poiesic/flowmate/core"
)

const classifierRules = `다음 규칙을 반드시 지켜라.
1) 출력은 오직 아래 중 하나의 라벨 단 한 개만 반환: [보고서], [요약], [발표], [일반]
2) 부가 설명, 따옴표, 공백, 마침표, 접두/접미 텍스트 금지.
3) 매핑 기준:
   - 보고서/레포트/문서 양식 요청 ⇒ [보고서]
   - 요약/핵심정리/압축 요청 ⇒ [요약]
   - 발표/슬라이드/PPT/프레젠테이션/데크 요청 ⇒ [발표]
   - 위에 해당하지 않으면 ⇒ [일반]`

var classifierExamples = []map[string]string{
	{"query": "이번 분기 판매 데이터 기반으로 매출 보고서 틀 좀 만들어줘", "label": "[보고서]"},
	{"query": "사내 결재용 레포트 양식으로 정리해줘", "label": "[보고서]"},
	{"query": "분석 결과를 문서형 보고 형태로 작성해", "label": "[보고서]"},
	{"query": "이 문서 핵심만 간단히 정리해줘", "label": "[요약]"},
	{"query": "기사 내용을 요점만 추려서 알려줘", "label": "[요약]"},
	{"query": "긴 텍스트를 한 단락으로 압축해줘", "label": "[요약]"},
	{"query": "발표자료(PPT) 형식으로 만들어줘", "label": "[발표]"},
	{"query": "슬라이드 10장 분량의 프레젠테이션 구성해줘", "label": "[발표]"},
	{"query": "데크(deck) 초안으로 만들어줄래?", "label": "[발표]"},
	{"query": "내일 비와?", "label": "[일반]"},
	{"query": "파이썬에서 리스트를 정렬하는 방법 알려줘", "label": "[일반]"},
	{"query": "Qdrant를 온라인으로 바꾸는 방법", "label": "[일반]"},
}

// ClassifierPrompt builds the few-shot intent prompt for query.
func ClassifierPrompt(query string) (string, error) {
	fs, err := prompts.NewFewShotPrompt(
		prompts.NewPromptTemplate("사용자: {{.query}}\n라벨: {{.label}}", []string{"query", "label"}),
		classifierExamples,
		nil,
		"예시:",
		"사용자: {{.query}}\n라벨:",
		[]string{"query"},
		nil,
		"\n\n",
		prompts.TemplateFormatGoTemplate,
		false,
	)
	if err != nil {
		return "", err
	}
	return fs.Format(map[string]any{"query": query})
}

var (
	validLabels = map[string]bool{"[보고서]": true, "[요약]": true, "[발표]": true, "[일반]": true}
	labelTag    = regexp.MustCompile(`\[(보고서|요약|발표|일반)\]`)
)

// NormalizeLabel maps raw classifier output to one of [보고서], [요약],
// [발표] or [일반]. Anything unrecognized becomes [일반].
func NormalizeLabel(output string) string {
	text := strings.TrimSpace(output)
	if text == "" {
		return "[일반]"
	}
	if validLabels[text] {
		return text
	}
	bare := strings.ReplaceAll(text, "라벨:", "")
	bare = strings.ReplaceAll(bare, "label:", "")
	bare = strings.ReplaceAll(strings.TrimSpace(bare), " ", "")
	if validLabels["["+bare+"]"] {
		return "[" + bare + "]"
	}
	if m := labelTag.FindStringSubmatch(text); m != nil {
		return "[" + m[1] + "]"
	}
	return "[일반]"
}

// Classify asks the classifier for the task behind query.
func (w *Workflow) Classify(ctx context.Context, query string) (core.TaskType, string, error) {
	prompt, err := ClassifierPrompt(query)
	if err != nil {
		return core.TaskQuestionAnswer, "", fmt.Errorf("format classifier prompt: %w", err)
	}
	out, err := w.classifier.Generate(ctx, prompt, ai.GenerateOptions{
		System:      classifierRules,
		MaxTokens:   w.classifyMaxTokens,
		Temperature: ai.Float(0),
	})
	if err != nil {
		return core.TaskQuestionAnswer, "", fmt.Errorf("%w: %w", core.ErrGenerationFailure, err)
	}
	label := NormalizeLabel(out)
	return core.TaskFromLabel(label), label, nil
}
