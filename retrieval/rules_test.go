package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/flowmate/core"
)

func TestPlanner_DefaultRules(t *testing.T) {
	p := NewPlanner()

	tests := []struct {
		query string
		want  Plan
	}{
		{"분기 실적 보고서 작성해줘", Plan{LabelComplex, 1000, 4096}},
		{"Make a PPT about onboarding", Plan{LabelComplex, 1000, 4096}},
		{"두 제도를 비교해줘", Plan{LabelComplex, 1000, 4096}},
		{"퀴즈 5개 만들어줘", Plan{LabelQuiz, 100, 2048}},
		{"요약해줘", Plan{LabelSummary, 100, 1024}},
		{"핵심만 알려줘", Plan{LabelSummary, 100, 1024}},
		{"연차는 어떻게 신청하나요?", Plan{LabelSpecific, 100, 2048}},
		{"Who approves expenses?", Plan{LabelSpecific, 100, 2048}},
		{"안녕하세요", Plan{LabelGeneral, 10, 1024}},
		{"", Plan{LabelGeneral, 10, 1024}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Plan(tt.query, core.TaskQuestionAnswer))
		})
	}
}

func TestPlanner_RuleOrderWins(t *testing.T) {
	p := NewPlanner()

	// Both complex and summary keywords; complex is earlier.
	assert.Equal(t, LabelComplex, p.Plan("보고서를 요약해줘", core.TaskQuestionAnswer).Label)
	// Quiz precedes specific.
	assert.Equal(t, LabelQuiz, p.Plan("왜 그런지 퀴즈로", core.TaskQuestionAnswer).Label)
}

func TestPlanner_TaskLift(t *testing.T) {
	p := NewPlanner()

	assert.Equal(t, LabelComplex, p.Plan("안녕", core.TaskReport).Label)
	assert.Equal(t, LabelComplex, p.Plan("요약해줘", core.TaskPresentation).Label)
	assert.Equal(t, LabelSummary, p.Plan("이 문서 어때?", core.TaskSummary).Label)
	assert.Equal(t, LabelSummary, p.Plan("어떻게 되어 있나", core.TaskSummary).Label)
	assert.Equal(t, LabelQuiz, p.Plan("퀴즈로 정리", core.TaskSummary).Label)
}

func TestPlanner_CustomRules(t *testing.T) {
	p := NewPlanner(
		Rule{Label: "urgent", Match: Keywords("긴급"), K: 3, TokenBudget: 256},
		Rule{Label: "rest", K: 1, TokenBudget: 128},
	)

	assert.Equal(t, Plan{"urgent", 3, 256}, p.Plan("긴급 공지", core.TaskQuestionAnswer))
	assert.Equal(t, Plan{"rest", 1, 128}, p.Plan("일반 공지", core.TaskReport))
	assert.Len(t, p.Rules(), 2)
}

func TestKeywords_CaseInsensitive(t *testing.T) {
	match := Keywords("Report")

	assert.True(t, match("weekly REPORT please"))
	assert.False(t, match("weekly summary"))
}
