package workflow

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"

	"github.com/poiesic/flowmate/core"
	"github.com/poiesic/flowmate/retrieval"
)

// SystemPrompt pins every generation to Korean.
const SystemPrompt = `[CRITICAL LANGUAGE INSTRUCTION]
반드시 한국어로만 답변하세요. 중국어, 영어, 일본어 등 다른 언어는 절대 사용 금지입니다.
ONLY Korean language allowed. Chinese/English/Japanese strictly forbidden.
只能用韩语回答，严禁使用中文或其他语言。

당신은 Flow팀에서 만든 FlowMate:사내업무길라잡이 AI입니다.
모든 답변은 반드시 한국어로만 작성해주세요.
전문적이고 정확한 내용을 한국어로 제공해주세요.`

var taskPrompts = map[core.TaskType]prompts.PromptTemplate{
	core.TaskReport: prompts.NewPromptTemplate(`아래 문서 내용을 기반으로 전문적인 보고서를 마크다운 형식으로 작성해주세요.

문서 내용:
{{.context}}

사용자 요청: {{.query}}

보고서 구조:
1. 제목
2. 목차
3. 개요
4. 주요 내용 (섹션별)
5. 결론 및 권고사항`, []string{"context", "query"}),

	core.TaskPresentation: prompts.NewPromptTemplate(`아래 문서 내용을 기반으로 PPT 슬라이드 구성을 작성해주세요.

문서 내용:
{{.context}}

사용자 요청: {{.query}}

작성 규칙:
- 슬라이드는 5장 이상 10장 이하로 구성하세요.
- 첫 슬라이드는 표지, 마지막 슬라이드는 마무리 슬라이드로 작성하세요.
- 아래 출력 형식을 그대로 따르세요.

출력 형식:
[슬라이드 1]
제목: 제목 내용
핵심 포인트:
- 포인트 1
- 포인트 2

[슬라이드 2]
제목: 제목 내용
핵심 포인트:
- 포인트 1
- 포인트 2`, []string{"context", "query"}),

	core.TaskSummary: prompts.NewPromptTemplate(`아래 문서 내용을 체계적으로 요약해주세요.

문서 내용:
{{.context}}

사용자 요청: {{.query}}`, []string{"context", "query"}),

	core.TaskQuestionAnswer: prompts.NewPromptTemplate(`이전 대화:
{{.history}}

문서 내용:
{{.context}}

사용자 질문: {{.query}}

위 문서를 참고하여 사용자의 질문에 정확하고 친절하게 답변해주세요.`, []string{"history", "context", "query"}),
}

// generateFailure prefixes a failed generate step's message per task.
var generateFailure = map[core.TaskType]string{
	core.TaskReport:         "보고서 생성 실패",
	core.TaskPresentation:   "발표자료 생성 실패",
	core.TaskSummary:        "요약 생성 실패",
	core.TaskQuestionAnswer: "질의응답 생성 실패",
}

func taskPrompt(task core.TaskType, query, context, history string) (string, error) {
	tmpl, ok := taskPrompts[task]
	if !ok {
		tmpl = taskPrompts[core.TaskQuestionAnswer]
	}
	return tmpl.Format(map[string]any{
		"query":   query,
		"context": context,
		"history": history,
	})
}

const directBase = `[LANGUAGE INSTRUCTION - MANDATORY]
**반드시 한국어로만 답변하세요. 중국어, 영어, 일본어 등 다른 언어는 절대 사용 금지입니다.**
**ONLY Korean language allowed. Chinese/English/Japanese strictly forbidden.**
**只能用韩语回答，严禁使用中文或其他语言。**

- 모든 답변은 반드시 한국어로만 작성해주세요
- 요약, 보고서 작성, 발표자료 작성에 특화되어있습니다
- 중국어나 영어가 포함된 답변은 절대 제공하지 마세요

이전 대화 기록:
{{.history}}

참고 문서 내용:
{{.context}}

사용자 질문: {{.query}}

**다시 한 번 강조: 답변은 100% 한국어로만 작성해주세요.**

`

// directInstructions are the per-label closing instructions of the direct
// path prompt.
var directInstructions = map[string]string{
	retrieval.LabelComplex: `**한국어로만 답변 필수**
위 문서를 바탕으로 사용자의 요청에 대해 체계적이고 전문적으로 한국어로 답변해주세요:
- 문서의 핵심 내용을 충분히 반영하세요
- 논리적 구조로 답변을 구성하세요
- 구체적인 근거와 예시를 포함하세요
- 문서에 없는 내용은 추측하지 마세요

한국어 답변:`,

	retrieval.LabelQuiz: `**한국어 퀴즈 생성**
문서 내용을 기반으로 한국어로만 퀴즈를 생성해주세요:
- 문서의 핵심 개념과 중요한 정보를 중심으로 구성하세요
- 다양한 유형의 문제를 포함하세요 (객관식, 단답형, 서술형 등)
- 사용자의 요청이 없다면 문제는 5개만 생성합니다
- 각 문제에 대한 정답과 해설을 제공하세요
- 난이도를 적절히 조절하세요

한국어 퀴즈:`,

	retrieval.LabelSummary: `**한국어 요약**
문서의 주요 내용을 체계적으로 한국어로만 요약해주세요:
- 핵심 주제와 요점을 명확히 정리하세요
- 중요도에 따라 내용을 구조화하세요
- 구체적인 데이터나 예시가 있다면 포함하세요
- 간결하지만 포괄적으로 정리하세요

한국어 요약:`,

	retrieval.LabelSpecific: `**한국어로 구체적 답변**
문서를 참조하여 구체적이고 정확하게 한국어로만 답변해주세요:
- 문서에서 관련된 정보를 찾아 근거로 제시하세요
- 단계별로 명확하게 설명하세요
- 문서에 명시되지 않은 부분은 "문서에서 확인할 수 없습니다"라고 명시하세요
- 가능한 한 구체적인 예시나 수치를 포함하세요

한국어 답변:`,

	retrieval.LabelGeneral: `**한국어로 일반 답변**
문서를 바탕으로 사용자의 질문에 정확하고 친절하게 한국어로만 답변해주세요:
- 문서의 관련 내용을 충분히 활용하세요
- 명확하고 이해하기 쉽게 설명하세요
- 문서 범위를 벗어나는 추측은 피하세요
- 답변은 너무 길지 않게 해주세요

한국어 답변:`,
}

func directPrompt(label, query, context, history string) (string, error) {
	instructions, ok := directInstructions[label]
	if !ok {
		instructions = directInstructions[retrieval.LabelGeneral]
	}
	tmpl := prompts.NewPromptTemplate(directBase+instructions, []string{"history", "context", "query"})
	return tmpl.Format(map[string]any{
		"query":   query,
		"context": context,
		"history": history,
	})
}

var fallbackTemplate = prompts.NewPromptTemplate(`[LANGUAGE INSTRUCTION - MANDATORY]
**반드시 한국어로만 답변하세요. 중국어, 영어, 일본어 등 다른 언어는 절대 사용 금지입니다.**

당신은 Flow팀에서 만든 FlowMate:사내업무길라잡이 AI입니다.
모든 답변은 반드시 한국어로만 작성해주세요.

이전 대화 기록:
{{.history}}

참고 문서 내용:
{{.context}}

사용자 질문: {{.query}}

**한국어로만 답변:**`, []string{"history", "context", "query"})

func fallbackPrompt(query, context, history string) (string, error) {
	out, err := fallbackTemplate.Format(map[string]any{
		"query":   query,
		"context": context,
		"history": history,
	})
	if err != nil {
		return "", fmt.Errorf("format fallback prompt: %w", err)
	}
	return out, nil
}
