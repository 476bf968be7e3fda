package advisor

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/complyeu/aiact-cli/internal/config"
	"github.com/complyeu/aiact-cli/internal/rules"
)

// Phase is the consultation state machine position.
type Phase string

const (
	PhaseNoDescription        Phase = "no_description"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseQuestioning          Phase = "questioning"
	PhaseConcluded            Phase = "concluded"
)

// QAPair is one asked question and its answer, immutable once appended.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Progress reports interview position for shells.
type Progress struct {
	QuestionsAsked int  `json:"questions_asked"`
	MinQuestions   int  `json:"min_questions"`
	MaxQuestions   int  `json:"max_questions"`
	HasDescription bool `json:"has_description"`
}

// Reply is the outcome of one submitted input.
type Reply struct {
	Message  string   `json:"message"`
	Done     bool     `json:"is_done"`
	Progress Progress `json:"progress"`
}

// ArticleInfo is a citation reference with its first-seen location.
type ArticleInfo struct {
	Page    int
	Excerpt string
}

// Consultation is one interview session. It is not safe for concurrent
// use; callers sharing one across requests must serialize access.
type Consultation struct {
	advisor *Advisor

	phase              Phase
	description        string
	pendingDescription string
	currentQuestion    string
	history            []QAPair
	askedQuestions     []string
	riskContext        map[string]ArticleInfo
}

// NewConsultation starts an empty consultation.
func (a *Advisor) NewConsultation() *Consultation {
	return &Consultation{advisor: a, phase: PhaseNoDescription}
}

// InitialPrompt is what shells show before the first description.
const InitialPrompt = `Please describe your AI system in detail. Include:
- Primary purpose and functionality
- Technical approach (ML model type, algorithms)
- Data processed (types, sources, sensitivity)
- Deployment context (where, when, who uses it)
- Decision-making role (automated, human-in-loop)
- Potential impact on individuals

Be specific to enable accurate risk classification.`

const clearedGateMessage = "No obvious Article 5 violations detected in initial description. Proceeding with detailed compliance assessment."

const cancelledMessage = "Assessment cancelled. Describe your AI system to start again."

const concludedMessage = "Consultation concluded. Reset to start a new assessment."

// Phase returns the current state machine position.
func (c *Consultation) Phase() Phase {
	return c.phase
}

// Progress reports the current interview position.
func (c *Consultation) Progress() Progress {
	return Progress{
		QuestionsAsked: len(c.history),
		MinQuestions:   c.advisor.cfg.MinQuestions,
		MaxQuestions:   c.advisor.cfg.MaxQuestions,
		HasDescription: c.description != "",
	}
}

// Reset clears all consultation state from any phase. It is idempotent.
func (c *Consultation) Reset() {
	c.phase = PhaseNoDescription
	c.description = ""
	c.pendingDescription = ""
	c.currentQuestion = ""
	c.history = nil
	c.askedQuestions = nil
	c.riskContext = nil
}

// Submit advances the consultation with one piece of user input and
// returns the next prompt or final report. Completion-collaborator
// failures during question generation are returned as errors so shells
// can retry; every other failure resolves to a deterministic fallback.
func (c *Consultation) Submit(ctx context.Context, input string) (Reply, error) {
	input = strings.TrimSpace(input)

	switch c.phase {
	case PhaseNoDescription:
		return c.submitDescription(ctx, input)
	case PhaseAwaitingConfirmation:
		return c.submitConfirmation(ctx, input)
	case PhaseQuestioning:
		return c.submitAnswer(ctx, input)
	default:
		return c.reply(concludedMessage, true), nil
	}
}

func (c *Consultation) submitDescription(ctx context.Context, input string) (Reply, error) {
	detections := rules.Evaluate(input)
	if len(detections) > 0 {
		c.pendingDescription = input
		c.phase = PhaseAwaitingConfirmation
		zap.L().Warn("prohibited practice detected",
			zap.Int("detections", len(detections)),
			zap.String("citation", detections[0].Citation))
		return c.reply(rules.RenderWarning(detections), false), nil
	}

	c.description = input
	c.phase = PhaseQuestioning
	message, done, err := c.askNext(ctx)
	if err != nil {
		return Reply{}, err
	}
	return c.reply(clearedGateMessage+"\n\n"+message, done), nil
}

func (c *Consultation) submitConfirmation(ctx context.Context, input string) (Reply, error) {
	switch strings.ToLower(input) {
	case "yes", "y", "continue":
		// The pending description becomes the working description so the
		// interview and report operate on the same text the gate saw.
		c.description = c.pendingDescription
		c.pendingDescription = ""
		c.phase = PhaseQuestioning
		message, done, err := c.askNext(ctx)
		if err != nil {
			return Reply{}, err
		}
		return c.reply(message, done), nil
	case "no", "n":
		report := c.advisor.ProhibitedReport(c.pendingDescription)
		c.Reset()
		return c.reply(report, true), nil
	default:
		c.Reset()
		return c.reply(cancelledMessage, false), nil
	}
}

func (c *Consultation) submitAnswer(ctx context.Context, input string) (Reply, error) {
	// A near-empty answer after the minimum rounds is an "I don't know"
	// signal; conclude rather than press on.
	if len(strings.Fields(input)) < 3 && len(c.history) >= c.advisor.cfg.MinQuestions {
		report := c.advisor.FinalReport(ctx, c)
		c.phase = PhaseConcluded
		return c.reply(report, true), nil
	}

	c.history = append(c.history, QAPair{Question: c.currentQuestion, Answer: input})
	message, done, err := c.askNext(ctx)
	if err != nil {
		return Reply{}, err
	}
	return c.reply(message, done), nil
}

// ResumeQuestioning re-runs the generator without consuming new input.
// Shells call it to retry after a transient completion failure, since by
// then the submitted input has already been applied to the state. Outside
// the questioning phase there is nothing to retry and the state is left
// untouched.
func (c *Consultation) ResumeQuestioning(ctx context.Context) (Reply, error) {
	switch c.phase {
	case PhaseConcluded:
		return c.reply(concludedMessage, true), nil
	case PhaseNoDescription:
		return c.reply("Nothing to retry yet. Describe your AI system to begin.", false), nil
	case PhaseAwaitingConfirmation:
		return c.reply("Nothing to retry. Answer yes or no to the warning above.", false), nil
	}
	message, done, err := c.askNext(ctx)
	if err != nil {
		return Reply{}, err
	}
	return c.reply(message, done), nil
}

// askNext runs the generator and either surfaces the next question or
// concludes with the final report.
func (c *Consultation) askNext(ctx context.Context) (string, bool, error) {
	assessment, err := c.advisor.NextAssessment(ctx, c)
	if err != nil {
		return "", false, err
	}

	if ShouldConclude(len(c.history), assessment, c.advisor.cfg) {
		report := c.advisor.FinalReport(ctx, c)
		c.phase = PhaseConcluded
		return report, true, nil
	}

	c.currentQuestion = strings.TrimSpace(assessment.NextQuestion)
	return c.currentQuestion, false, nil
}

// ShouldConclude is the interview stopping rule, checked in order: never
// before the minimum rounds; always at the maximum; when the generator has
// no further question; or when it is confident enough to classify.
func ShouldConclude(historyLen int, a Assessment, cfg config.InterviewConfig) bool {
	if historyLen < cfg.MinQuestions {
		return false
	}
	if historyLen >= cfg.MaxQuestions {
		return true
	}
	if a.NextQuestion == "" {
		return true
	}
	return a.Status == StatusReadyToConclude && a.Confidence >= cfg.ConfidenceThreshold
}

func (c *Consultation) reply(message string, done bool) Reply {
	return Reply{Message: message, Done: done, Progress: c.Progress()}
}
