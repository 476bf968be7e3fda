package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Assessment statuses as emitted by the completion collaborator.
const (
	StatusNeedMoreInfo    = "need_more_info"
	StatusReadyToConclude = "ready_to_conclude"
)

// Assessment is the generator's structured verdict for one round.
type Assessment struct {
	Status         string   `json:"assessment_status"`
	Confidence     float64  `json:"confidence"`
	RiskHypothesis string   `json:"risk_hypothesis"`
	Reasoning      string   `json:"reasoning"`
	MissingInfo    []string `json:"missing_info"`
	NextQuestion   string   `json:"next_question"`
}

const questionSystemPrompt = `You are an EU AI Act compliance analyst conducting a structured interview.

RISK CLASSIFICATION FRAMEWORK:
1. PROHIBITED (Article 5): Social scoring, subliminal manipulation, real-time biometric surveillance
2. HIGH-RISK (Annex III): Biometrics, critical infrastructure, employment, education, law enforcement
3. LIMITED RISK (Article 52): Chatbots, deepfakes, emotion recognition - transparency required
4. MINIMAL RISK: General purpose AI with no special obligations

YOUR TASK:
- Ask ONE specific technical question to determine risk classification
- Focus on: purpose, data types, decision impact, human oversight, deployment context
- Avoid generic or repetitive questions
- After the minimum rounds, evaluate if you can confidently classify the system

RESPONSE FORMAT (JSON only):
{
  "assessment_status": "need_more_info" or "ready_to_conclude",
  "confidence": 0.0-1.0,
  "risk_hypothesis": "prohibited/high-risk/limited-risk/minimal-risk",
  "reasoning": "brief explanation of current assessment",
  "missing_info": ["specific gap 1", "specific gap 2"],
  "next_question": "your next question" or null
}`

// fallbackQuestions is the fixed queue used when the collaborator's reply
// cannot be parsed, drawn in order and skipping near-duplicates.
var fallbackQuestions = []string{
	"What specific types of personal data does your AI system process?",
	"Describe the decision-making process: fully automated or human-reviewed?",
	"What are the consequences if your system makes an incorrect decision?",
	"In which EU member states will this system be deployed?",
	"What measures ensure accuracy and prevent bias?",
	"How are users notified they're interacting with an AI system?",
	"What documentation exists for training data and methodology?",
	"Describe your system's impact on fundamental rights.",
}

const (
	descriptionPreviewLen = 500
	queryWindowLen        = 500
	chunkPreviewLen       = 300
	questionPreviewLen    = 80
	answerPreviewLen      = 100
	contextBudget         = 1000
	hintsBudget           = 800
)

// NextAssessment builds the interview prompt, calls the completion
// collaborator and parses its reply. Completion failures propagate as
// errors (retryable by the shell); malformed replies resolve to the
// fallback-question policy and are never surfaced.
func (a *Advisor) NextAssessment(ctx context.Context, c *Consultation) (Assessment, error) {
	answers := make([]string, 0, len(c.history))
	for _, qa := range c.history {
		answers = append(answers, qa.Answer)
	}
	allContent := c.description + " " + strings.Join(answers, " ")

	hints := a.questions.Hints(allContent)
	retrieved := a.retriever.Retrieve(ctx, tail(allContent, queryWindowLen), a.chunks, a.cfg.QuestionRetrievalK)

	var contextParts []string
	for _, chunk := range retrieved {
		if len(chunk.Citations) == 0 {
			continue
		}
		contextParts = append(contextParts, fmt.Sprintf("[Article %s] %s...",
			strings.Join(chunk.Citations, ", "), head(chunk.Text, chunkPreviewLen)))
	}

	recent := c.history
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	var historyParts []string
	for i, qa := range recent {
		historyParts = append(historyParts, fmt.Sprintf("Q%d: %s... -> A: %s...",
			i+1, head(qa.Question, questionPreviewLen), head(qa.Answer, answerPreviewLen)))
	}

	prompt := fmt.Sprintf(`SYSTEM DESCRIPTION:
%s

INTERVIEW HISTORY (%d questions):
%s

RELEVANT EU AI ACT CONTEXT:
%s

REFERENCE AUDIT QUESTIONS:
%s

Generate your assessment and next question (or conclude if ready).
Questions asked: %d/%d`,
		head(c.description, descriptionPreviewLen),
		len(c.history),
		strings.Join(historyParts, "\n"),
		head(strings.Join(contextParts, "\n\n"), contextBudget),
		head(hints, hintsBudget),
		len(c.history), a.cfg.MaxQuestions)

	raw, err := a.completer.Complete(ctx, questionSystemPrompt, prompt, 0.3, 1000)
	if err != nil {
		return Assessment{}, err
	}

	assessment, parseErr := parseAssessment(raw)
	if parseErr != nil {
		zap.L().Warn("malformed assessment, using fallback question", zap.Error(parseErr))
		return a.fallbackAssessment(ctx, c), nil
	}

	if assessment.NextQuestion != "" {
		if a.isDuplicateQuestion(ctx, assessment.NextQuestion, c.askedQuestions) {
			hypothesis := assessment.RiskHypothesis
			if hypothesis == "" {
				hypothesis = "assessment_needed"
			}
			return Assessment{
				Status:         StatusReadyToConclude,
				Confidence:     0.9,
				RiskHypothesis: hypothesis,
				Reasoning:      "Sufficient information gathered",
			}, nil
		}
		c.askedQuestions = append(c.askedQuestions, assessment.NextQuestion)
	}
	return assessment, nil
}

// parseAssessment parses an optionally fenced JSON reply. Confidence is
// clamped to [0, 1] and the status normalized to lower case.
func parseAssessment(raw string) (Assessment, error) {
	var a Assessment
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &a); err != nil {
		return Assessment{}, err
	}
	a.Status = strings.ToLower(strings.TrimSpace(a.Status))
	if a.Confidence < 0 {
		a.Confidence = 0
	}
	if a.Confidence > 1 {
		a.Confidence = 1
	}
	a.NextQuestion = strings.TrimSpace(a.NextQuestion)
	return a, nil
}

// fallbackAssessment draws the first fixed question that is not a
// near-duplicate of an already-asked one; with the list exhausted it
// forces conclusion.
func (a *Advisor) fallbackAssessment(ctx context.Context, c *Consultation) Assessment {
	for _, q := range fallbackQuestions {
		if a.isDuplicateQuestion(ctx, q, c.askedQuestions) {
			continue
		}
		c.askedQuestions = append(c.askedQuestions, q)
		return Assessment{Status: StatusNeedMoreInfo, Confidence: 0.5, NextQuestion: q}
	}
	return Assessment{Status: StatusReadyToConclude, Confidence: 0.7}
}

// isDuplicateQuestion compares a candidate against the last three asked
// questions. A similarity failure counts as not-duplicate.
func (a *Advisor) isDuplicateQuestion(ctx context.Context, candidate string, asked []string) bool {
	if len(asked) > 3 {
		asked = asked[len(asked)-3:]
	}
	for _, prev := range asked {
		sim, err := a.retriever.Similarity(ctx, candidate, prev)
		if err != nil {
			zap.L().Warn("similarity check failed", zap.Error(err))
			continue
		}
		if sim > a.cfg.DuplicateThreshold {
			zap.L().Info("duplicate question suppressed", zap.Float64("similarity", sim))
			return true
		}
	}
	return false
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

// head returns at most n runes from the start of s.
func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// tail returns at most n runes from the end of s.
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
