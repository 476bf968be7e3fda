package rules

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

const warningBoilerplate = `## PENALTIES - Article 99(3)
**Maximum fine:** EUR 35,000,000 OR 7% of total worldwide annual turnover (whichever is higher)

**Additional consequences:**
- Immediate system shutdown order
- Criminal liability (varies by Member State)
- Civil liability for damages to affected individuals
- Permanent market ban in the EU

---

## IMMEDIATE ACTIONS REQUIRED

1. **HALT all operations immediately** - Do NOT deploy or continue using this system
2. **Engage qualified legal counsel** urgently (EU AI Act + GDPR specialist)
3. **Document everything** - Preserve records of system capabilities and usage
4. **Notify authorities if already deployed:**
   - Data Protection Authority (GDPR breach notification)
   - National AI Office / Market Surveillance Authority
5. **Delete unlawfully collected data** - Especially biometric data obtained without consent

---

## CRITICAL NOTES

- These violations are **NOT fixable** through documentation or procedural changes
- The core functionality of your system is fundamentally prohibited
- There is NO compliance path that maintains this functionality
- Even if you disagree with this assessment, you MUST consult legal counsel before proceeding

---

## LEGAL DISCLAIMER

This is an automated preliminary assessment based on pattern matching in your system description.
It is NOT a legal opinion. However, the detected indicators are severe enough that you should
treat this as a legal emergency requiring immediate professional legal consultation.

---

**Your options:**
- Answer ` + "`no`" + ` to halt and receive the prohibited-system report (STRONGLY RECOMMENDED: contact legal counsel)
- Answer ` + "`yes`" + ` to proceed with the detailed assessment (the system remains prohibited regardless)
- Any other answer cancels and discards this description

Your choice: `

// RenderWarning formats fired detections into the structured warning shown
// before the interview can proceed. Detections are expected pre-sorted
// critical-first, as Evaluate returns them.
func RenderWarning(detections []Detection) string {
	var b strings.Builder
	b.WriteString("**PROHIBITED AI SYSTEM DETECTED**\n\n")
	fmt.Fprintf(&b, "**%d Article 5 violation(s) identified:**\n\n", len(detections))

	for _, d := range detections {
		fmt.Fprintf(&b, "### %s\n", d.Type)
		fmt.Fprintf(&b, "**%s** | Severity: %s\n\n", d.Citation, d.Severity)
		fmt.Fprintf(&b, "**Evidence from your description:**\n%s\n\n", d.Evidence)
		fmt.Fprintf(&b, "**Legal requirement:**\n%s\n\n", d.LegalBasis)

		if len(d.Matches) > 0 {
			b.WriteString("**Detected indicators:**\n")
			for _, m := range d.Matches {
				if len(m.Terms) == 0 {
					continue
				}
				fmt.Fprintf(&b, "- %s: %s\n", titleCaser.String(m.Category), strings.Join(m.Terms, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("---\n\n")
	}

	b.WriteString(warningBoilerplate)
	return b.String()
}
