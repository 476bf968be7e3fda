package advisor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/complyeu/aiact-cli/internal/corpus"
)

const reportSystemPrompt = `You are an EU AI Act compliance expert generating the FINAL ASSESSMENT REPORT.

CITATION RULES:
1. Article 5 (Prohibited) - ONLY cite if system explicitly matches prohibited practices
2. Annex III (High-Risk) - ONLY cite if system is used in specific high-risk contexts
3. Article 52 (Transparency) - Cite for systems interacting with humans

REPORT STRUCTURE:

# EU AI ACT COMPLIANCE ASSESSMENT

## 1. RISK CLASSIFICATION
**Risk Level:** [PROHIBITED / HIGH-RISK / LIMITED RISK / MINIMAL RISK]
**Confidence:** [Low/Medium/High]
**Rationale:** Why this classification was chosen

## 2. IDENTIFIED VIOLATIONS & CONCERNS
List violations with Article references and evidence

## 3. APPLICABLE ARTICLES
For each article: requirement, current status, gap analysis

## 4. PENALTIES (Article 99)
- Prohibited AI: EUR 35M or 7% turnover
- High-risk violations: EUR 15M or 3% turnover
- Other violations: EUR 7.5M or 1.5% turnover

## 5. COMPLIANCE ROADMAP
Prioritized actions with timeline

## 6. TECHNICAL RECOMMENDATIONS
Specific measures to address gaps

QUALITY STANDARDS:
- Cite ONLY articles with clear evidence
- Include page numbers for citations
- Distinguish violations from concerns
- Base conclusions on interview data`

const (
	articleExcerptLen   = 500
	articleContextLen   = 400
	articleContextCount = 20
	reportContextBudget = 3000
	emergencyArticleCap = 15
)

// FinalReport synthesizes the compliance report from the full interview.
// Collaborator failure is absorbed into a deterministic emergency template;
// this method never fails.
func (a *Advisor) FinalReport(ctx context.Context, c *Consultation) string {
	var parts []string
	for _, qa := range c.history {
		parts = append(parts, qa.Question+" "+qa.Answer)
	}
	allContent := c.description + " " + strings.Join(parts, " ")

	retrieved := a.retriever.Retrieve(ctx, allContent, a.chunks, a.cfg.ReportRetrievalK)
	articles := extractArticles(retrieved)
	c.riskContext = articles

	var contextParts []string
	for _, art := range sortedArticles(articles, articleContextCount) {
		info := articles[art]
		contextParts = append(contextParts, fmt.Sprintf("\n**Article %s** (Page %d):\n%s...",
			art, info.Page, head(info.Excerpt, articleContextLen)))
	}

	var historyParts []string
	for i, qa := range c.history {
		historyParts = append(historyParts, fmt.Sprintf("Q%d: %s\nA%d: %s", i+1, qa.Question, i+1, qa.Answer))
	}

	prompt := fmt.Sprintf(`GENERATE COMPREHENSIVE EU AI ACT COMPLIANCE REPORT

SYSTEM ASSESSED:
%s

INTERVIEW DATA (%d questions):
%s

RELEVANT EU AI ACT ARTICLES:
%s

Generate complete compliance report with risk level, violations, and recommendations.`,
		c.description,
		len(c.history),
		strings.Join(historyParts, "\n"),
		head(strings.Join(contextParts, "\n"), reportContextBudget))

	report, err := a.completer.Complete(ctx, reportSystemPrompt, prompt, 0.2, 4000)
	if err != nil {
		zap.L().Error("report generation failed, using emergency template", zap.Error(err))
		return emergencyReport(c.description, len(c.history), articles)
	}
	return report
}

// extractArticles collects each distinct citation with its first-seen page
// and excerpt, in retrieval order.
func extractArticles(chunks []corpus.Chunk) map[string]ArticleInfo {
	articles := make(map[string]ArticleInfo)
	for _, chunk := range chunks {
		for _, art := range chunk.Citations {
			if _, seen := articles[art]; seen {
				continue
			}
			articles[art] = ArticleInfo{
				Page:    chunk.Page,
				Excerpt: head(chunk.Text, articleExcerptLen),
			}
		}
	}
	return articles
}

func sortedArticles(articles map[string]ArticleInfo, limit int) []string {
	keys := make([]string, 0, len(articles))
	for k := range articles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

// emergencyReport is the deterministic fallback when the collaborator is
// unavailable at synthesis time.
func emergencyReport(description string, questionCount int, articles map[string]ArticleInfo) string {
	var lines []string
	for _, art := range sortedArticles(articles, emergencyArticleCap) {
		lines = append(lines, fmt.Sprintf("- Article %s (Page %d)", art, articles[art].Page))
	}

	return fmt.Sprintf(`# EU AI ACT PRELIMINARY ASSESSMENT

**AUTOMATED ASSESSMENT - LEGAL REVIEW REQUIRED**

## SYSTEM DESCRIPTION
%s

## INTERVIEW SUMMARY
Total questions: %d

## POTENTIALLY RELEVANT ARTICLES
%s

## RECOMMENDED ACTIONS
1. Consult EU AI Act legal specialist
2. Determine definitive risk classification
3. Begin conformity assessment if high-risk

**DISCLAIMER:** NOT a legal opinion. Professional counsel required.`,
		head(description, descriptionPreviewLen), questionCount, strings.Join(lines, "\n"))
}

// ProhibitedReport is the standalone report for a system the user declined
// to continue assessing after the prohibited-practice warning. It is fully
// deterministic and never calls the collaborator.
func (a *Advisor) ProhibitedReport(description string) string {
	return fmt.Sprintf(`# EU AI ACT COMPLIANCE ASSESSMENT - PROHIBITED SYSTEM

**FINAL DETERMINATION: PROHIBITED AI SYSTEM**

## SYSTEM ASSESSED
%s

## RISK CLASSIFICATION
**Risk Level:** PROHIBITED
**Confidence:** High
**Legal Basis:** Article 5 - Prohibited Artificial Intelligence Practices

## VIOLATION SUMMARY

Based on the system description, this AI system falls under **Article 5** of the EU AI Act, which explicitly prohibits practices such as:

> "The use of 'real-time' remote biometric identification systems in publicly accessible spaces for the purpose of law enforcement, unless certain limited exceptions apply"

**The detected combination of capabilities is explicitly prohibited under EU law.**

## LEGAL CONSEQUENCES

### Penalties (Article 99)
- **Maximum fine**: EUR 35,000,000 OR 7%% of total worldwide annual turnover (whichever is higher)
- **Additional sanctions**:
  - Immediate system shutdown order
  - Market ban in the EU
  - Criminal liability (Member State dependent)
  - Civil liability for damages to affected individuals

### Regulatory Actions
- Mandatory notification to national market surveillance authorities
- Data Protection Authority notification (GDPR breach)
- Potential investigation and enforcement proceedings

## IMMEDIATE ACTIONS REQUIRED

### 1. HALT ALL OPERATIONS
- Immediately cease all deployment and use of this system
- Do NOT collect any further biometric data
- Preserve all system logs and documentation for regulatory review

### 2. LEGAL CONSULTATION
- Engage qualified EU AI Act legal counsel immediately
- Consult GDPR/data protection specialists
- Prepare for potential regulatory inquiries

### 3. DATA HANDLING
- Assess lawfulness of any data already collected
- Implement data deletion procedures for unlawfully obtained biometric data
- Document all data handling and deletion activities

### 4. NOTIFICATION OBLIGATIONS
If the system has been deployed:
- Notify affected individuals (GDPR Article 34)
- Report to Data Protection Authority within 72 hours (GDPR Article 33)
- Inform national AI market surveillance authority

## COMPLIANCE PATH ASSESSMENT

### Can This System Be Made Compliant?

**NO.** The core functionality of this system is fundamentally prohibited by Article 5.

Unlike high-risk AI systems that can achieve compliance through documentation, testing, and oversight measures, **prohibited AI systems cannot be made compliant** through procedural improvements.

The only potential exceptions are:
- Law enforcement use with **judicial authorization** for specific serious crimes (Article 5(1)(d) exceptions)
- These exceptions have **extremely narrow conditions** and require Member State legislation

**For private security or commercial use: NO COMPLIANCE PATH EXISTS.**

## DISCLAIMER

**This is an automated preliminary assessment, NOT a legal opinion.**

However, the indicators detected are sufficiently clear that you should:
1. Treat this as a legal emergency
2. Seek immediate professional legal counsel
3. Halt all operations pending legal review
4. Preserve all documentation

---

**Assessment completed**: %s
**Session ID**: %s

---

## NEXT STEPS

Type 'reset' to start a new assessment with a different system.

**DO NOT proceed with deployment or operation of this system.**`,
		head(description, 1000),
		time.Now().Format("2006-01-02 15:04:05"),
		uuid.NewString())
}
