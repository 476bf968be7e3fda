package advisor

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var questionsYAML []byte

// AuditQuestion is one reference question with its legal anchor.
type AuditQuestion struct {
	Question  string `yaml:"question"`
	Reference string `yaml:"reference"`
}

// QuestionCategory groups reference questions under one audit theme.
type QuestionCategory struct {
	Name      string          `yaml:"name"`
	Questions []AuditQuestion `yaml:"questions"`
}

// SystemType maps description vocabulary to the audit questions relevant
// for one family of AI systems.
type SystemType struct {
	Key        string             `yaml:"key"`
	Name       string             `yaml:"name"`
	Keywords   []string           `yaml:"keywords"`
	Categories []QuestionCategory `yaml:"categories"`
}

// QuestionBank is the static audit-question reference table. It is used
// only as generator guidance; questions are never asked verbatim.
type QuestionBank struct {
	Title string       `yaml:"document_title"`
	Types []SystemType `yaml:"types"`
}

// LoadQuestionBank parses the embedded reference table.
func LoadQuestionBank() (*QuestionBank, error) {
	var qb QuestionBank
	if err := yaml.Unmarshal(questionsYAML, &qb); err != nil {
		return nil, eris.Wrap(err, "advisor: parse question bank")
	}
	return &qb, nil
}

// Hints returns the reference questions matching the description's
// vocabulary, at most two per category.
func (qb *QuestionBank) Hints(description string) string {
	if qb == nil || len(qb.Types) == 0 {
		return ""
	}
	desc := strings.ToLower(description)

	var parts []string
	for _, st := range qb.Types {
		matched := false
		for _, kw := range st.Keywords {
			if strings.Contains(desc, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		parts = append(parts, fmt.Sprintf("\n**%s**", st.Name))
		for _, cat := range st.Categories {
			qs := cat.Questions
			if len(qs) > 2 {
				qs = qs[:2]
			}
			for _, q := range qs {
				parts = append(parts, fmt.Sprintf("  - %s (%s)", q.Question, q.Reference))
			}
		}
	}
	return strings.Join(parts, "\n")
}
