// Package rules evaluates an AI system description against the Article 5
// prohibited-practice detectors. Detectors are declarative records over
// keyword families; all of them run on every evaluation and every firing
// detector is collected.
package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Severity ranks a detection. Critical detections render before high ones.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
)

// MatchGroup lists the terms from one keyword family found in the description.
type MatchGroup struct {
	Category string
	Terms    []string
}

// Detection is a fired rule.
type Detection struct {
	Type       string
	Citation   string
	Severity   Severity
	Evidence   string
	LegalBasis string
	Matches    []MatchGroup
}

// Rule is one declarative detector. Match receives the lower-cased
// description and reports evidence plus the matched keyword families.
type Rule struct {
	Name       string
	Citation   string
	Severity   Severity
	LegalBasis string
	Match      func(desc string) (evidence string, matches []MatchGroup, ok bool)
}

// Keyword families. Matching is plain substring containment on the
// lower-cased description.
var (
	realtimePatterns = []string{
		"real-time identification", "real time identification",
		"real-time recognition", "real time recognition",
		"real-time biometric", "real time biometric",
		"live identification", "live recognition", "live biometric",
		"continuous surveillance", "continuous identification",
		"continuous tracking", "continuous biometric",
		"ongoing surveillance", "ongoing identification",
	}
	simpleRealtime = []string{"real-time", "real time", "live"}

	biometricIndicators = []string{
		"facial recognition", "face recognition", "biometric identification",
		"biometric", "face id", "facial id",
	}
	publicIndicators = []string{
		"public space", "publicly accessible", "public area", "street",
		"transport hub", "train station", "station", "shopping center",
		"urban space", "crowd", "publicly accessible urban",
	}

	// A "continuous" signal next to ops vocabulary and away from
	// surveillance vocabulary is model monitoring, not surveillance.
	monitoringVocab = []string{
		"continuous monitoring", "dashboard", "audit", "metric",
		"weekly", "quarterly", "logging", "performance monitoring",
		"drift detection", "accuracy monitoring",
	}
	surveillanceVocab = []string{"surveillance", "tracking", "identification", "general public"}

	sensitiveAttrs = []string{
		"race", "ethnicity", "ethnic", "political opinion", "religious belief",
		"sexual orientation", "philosophical belief",
	}
	inferenceVerbs = []string{"infer", "deduce", "predict", "categorize", "categorise", "classify"}

	// Compliance-oriented language that suppresses the sensitive-attribute
	// detector even when its raw keywords co-occur.
	complianceVocab = []string{
		"balanced across", "balance across", "balanced for",
		"no demographic classification", "excluded scope",
		"does not infer", "does not classify", "does not categorize",
		"no inference", "no classification", "no categorization",
		"prevent bias", "avoid bias", "mitigate bias",
		"diversity in training", "representative dataset",
	}

	socialScoringVocab = []string{
		"social scoring", "social credit", "trustworthiness score",
		"citizen score", "social ranking", "reputation score",
	}
	authorityVocab = []string{"government", "public authority", "state", "municipality", "agency"}

	manipulationVocab = []string{
		"subliminal", "subconscious", "manipulate behavior", "manipulative technique",
		"exploit psychological",
	}

	vulnerabilityVocab = []string{
		"exploit vulnerability", "exploit disabilities", "exploit age",
		"target vulnerable", "exploit economic situation",
	}

	predictiveVocab = []string{
		"predictive policing", "crime prediction", "risk assessment", "recidivism prediction",
	}
	profilingVocab = []string{"profiling", "personality trait", "behavioral pattern", "individual characteristic"}
)

func containsAny(s string, kws []string) bool {
	for _, kw := range kws {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func matchedTerms(s string, kws []string) []string {
	var out []string
	for _, kw := range kws {
		if strings.Contains(s, kw) {
			out = append(out, kw)
		}
	}
	return out
}

// All lists the detectors in evaluation order.
var All = []Rule{
	{
		Name:       "Real-Time Remote Biometric Identification in Public Spaces",
		Citation:   "Article 5(1)(d)",
		Severity:   SeverityCritical,
		LegalBasis: "Prohibited for ALL entities (limited exceptions only for law enforcement with judicial authorization)",
		Match: func(desc string) (string, []MatchGroup, bool) {
			hasRealtime := containsAny(desc, realtimePatterns) || containsAny(desc, simpleRealtime)
			if hasRealtime && strings.Contains(desc, "continuous") &&
				containsAny(desc, monitoringVocab) && !containsAny(desc, surveillanceVocab) {
				hasRealtime = false
			}
			if !hasRealtime || !containsAny(desc, biometricIndicators) || !containsAny(desc, publicIndicators) {
				return "", nil, false
			}
			matches := []MatchGroup{
				{Category: "real-time", Terms: matchedTerms(desc, append(append([]string{}, realtimePatterns...), simpleRealtime...))},
				{Category: "biometric", Terms: matchedTerms(desc, biometricIndicators)},
				{Category: "public", Terms: matchedTerms(desc, publicIndicators)},
			}
			return "System uses real-time facial recognition in publicly accessible spaces", matches, true
		},
	},
	{
		Name:       "Biometric Categorization Based on Sensitive Attributes",
		Citation:   "Article 5(1)(e)",
		Severity:   SeverityCritical,
		LegalBasis: "Biometric categorization to infer race, political opinions, religion, sexual orientation is PROHIBITED",
		Match: func(desc string) (string, []MatchGroup, bool) {
			hasInference := containsAny(desc, inferenceVerbs) || strings.Contains(desc, "attribute")
			if !containsAny(desc, biometricIndicators) || !containsAny(desc, sensitiveAttrs) ||
				!hasInference || containsAny(desc, complianceVocab) {
				return "", nil, false
			}
			attrs := matchedTerms(desc, sensitiveAttrs)
			matches := []MatchGroup{
				{Category: "sensitive attributes", Terms: attrs},
				{Category: "inference method", Terms: matchedTerms(desc, inferenceVerbs)},
			}
			evidence := fmt.Sprintf("System infers sensitive attributes: %s", strings.Join(attrs, ", "))
			return evidence, matches, true
		},
	},
	{
		Name:       "Social Scoring by Public Authorities",
		Citation:   "Article 5(1)(c)",
		Severity:   SeverityCritical,
		LegalBasis: "Social scoring by public authorities leading to detrimental treatment is PROHIBITED",
		Match: func(desc string) (string, []MatchGroup, bool) {
			fired := containsAny(desc, socialScoringVocab) ||
				(containsAny(desc, authorityVocab) && strings.Contains(desc, "trustworthiness"))
			if !fired {
				return "", nil, false
			}
			return "System evaluates trustworthiness/social behavior for governmental purposes", nil, true
		},
	},
	{
		Name:       "Subliminal Manipulation",
		Citation:   "Article 5(1)(a)",
		Severity:   SeverityCritical,
		LegalBasis: "Techniques beyond consciousness causing harm are PROHIBITED",
		Match: func(desc string) (string, []MatchGroup, bool) {
			if !containsAny(desc, manipulationVocab) {
				return "", nil, false
			}
			return "System uses subliminal or manipulative techniques", nil, true
		},
	},
	{
		Name:       "Exploitation of Vulnerabilities",
		Citation:   "Article 5(1)(b)",
		Severity:   SeverityCritical,
		LegalBasis: "Exploiting vulnerabilities (age, disability, socio-economic) is PROHIBITED",
		Match: func(desc string) (string, []MatchGroup, bool) {
			if !containsAny(desc, vulnerabilityVocab) {
				return "", nil, false
			}
			return "System exploits vulnerabilities of specific groups", nil, true
		},
	},
	{
		Name:       "Predictive Policing Based on Profiling",
		Citation:   "Article 5(1)(g)",
		Severity:   SeverityHigh,
		LegalBasis: "Risk assessment based SOLELY on profiling or personality traits is PROHIBITED",
		Match: func(desc string) (string, []MatchGroup, bool) {
			if !containsAny(desc, predictiveVocab) || !containsAny(desc, profilingVocab) {
				return "", nil, false
			}
			return "System predicts criminal behavior based on profiling", nil, true
		},
	},
}

// Evaluate runs every detector against the description and returns all
// firing detections sorted critical-first. An empty slice means the
// description passes the prohibited-practice gate.
func Evaluate(description string) []Detection {
	desc := strings.ToLower(description)
	var out []Detection
	for _, r := range All {
		if evidence, matches, ok := r.Match(desc); ok {
			out = append(out, Detection{
				Type:       r.Name,
				Citation:   r.Citation,
				Severity:   r.Severity,
				Evidence:   evidence,
				LegalBasis: r.LegalBasis,
				Matches:    matches,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity == SeverityCritical && out[j].Severity != SeverityCritical
	})
	return out
}
