package retrieval

import (
	"strings"

	"github.com/poiesic/flowmate/core"
)

// Rule labels.
const (
	LabelComplex  = "complex"
	LabelQuiz     = "quiz"
	LabelSummary  = "summary"
	LabelSpecific = "specific"
	LabelGeneral  = "general"
)

// Rule maps queries matching Match to a retrieval size and generation
// token budget. A nil Match matches every query.
type Rule struct {
	Label       string
	Match       func(query string) bool
	K           int
	TokenBudget int
}

// Plan holds the retrieval parameters chosen for one request.
type Plan struct {
	Label       string
	K           int
	TokenBudget int
}

// Keywords matches queries containing any of words, case-insensitively.
func Keywords(words ...string) func(string) bool {
	lowered := make([]string, len(words))
	for i, w := range words {
		lowered[i] = strings.ToLower(w)
	}
	return func(query string) bool {
		q := strings.ToLower(query)
		for _, w := range lowered {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}
}

// DefaultRules returns the rule table evaluated top to bottom.
func DefaultRules() []Rule {
	return []Rule{
		{
			Label:       LabelComplex,
			Match:       Keywords("보고서", "발표", "ppt", "분석", "비교", "평가", "report", "presentation", "analysis", "analyze", "compare"),
			K:           1000,
			TokenBudget: 4096,
		},
		{
			Label:       LabelQuiz,
			Match:       Keywords("퀴즈", "quiz"),
			K:           100,
			TokenBudget: 2048,
		},
		{
			Label:       LabelSummary,
			Match:       Keywords("요약", "정리", "핵심", "간추", "summary", "summarize"),
			K:           100,
			TokenBudget: 1024,
		},
		{
			Label:       LabelSpecific,
			Match:       Keywords("어떻게", "왜", "무엇", "언제", "어디서", "누가", "how", "why", "what", "when", "where", "who"),
			K:           100,
			TokenBudget: 2048,
		},
		{
			Label:       LabelGeneral,
			K:           10,
			TokenBudget: 1024,
		},
	}
}

// Planner evaluates a rule table.
type Planner struct {
	rules []Rule
}

// NewPlanner creates a planner over rules, or DefaultRules when none are
// given. The last rule should match everything.
func NewPlanner(rules ...Rule) *Planner {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Planner{rules: rules}
}

// Rules returns the table in evaluation order.
func (p *Planner) Rules() []Rule {
	return p.rules
}

// Plan picks the first matching rule for query. Report and presentation
// tasks always use the complex rule; a summary task uses the summary rule
// unless an earlier rule matched.
func (p *Planner) Plan(query string, task core.TaskType) Plan {
	matched := len(p.rules) - 1
	for i, r := range p.rules {
		if r.Match == nil || r.Match(query) {
			matched = i
			break
		}
	}

	switch task {
	case core.TaskReport, core.TaskPresentation:
		if i := p.index(LabelComplex); i >= 0 {
			matched = i
		}
	case core.TaskSummary:
		if i := p.index(LabelSummary); i >= 0 && matched > i {
			matched = i
		}
	}

	r := p.rules[matched]
	return Plan{Label: r.Label, K: r.K, TokenBudget: r.TokenBudget}
}

func (p *Planner) index(label string) int {
	for i, r := range p.rules {
		if r.Label == label {
			return i
		}
	}
	return -1
}
