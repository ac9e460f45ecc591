package classify

import (
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
)

// Trigger words checked against the lowercased query text. A trailing
// plural "s" on a query word still matches.
var (
	EntityTriggers         = []string{"who", "person", "people"}
	TimelineTriggers       = []string{"when", "timeline", "chronological", "chronology", "date"}
	RelationshipTriggers   = []string{"relationship", "connected", "connection", "link"}
	RiskTriggers           = []string{"risk", "danger", "threat"}
	ComplianceTriggers     = []string{"compliance", "regulation", "regulatory", "legal"}
	AnomalyTriggers        = []string{"unusual", "anomaly", "anomalies", "strange"}
	ClassificationTriggers = []string{"type", "category", "categories", "classify"}
)

// intentTriggers is ordered: the first intent whose triggers appear wins.
var intentTriggers = []struct {
	intent core.Intent
	words  []string
}{
	{core.IntentEntityExtraction, EntityTriggers},
	{core.IntentTimelineAnalysis, TimelineTriggers},
	{core.IntentRelationshipMapping, RelationshipTriggers},
	{core.IntentRiskAssessment, RiskTriggers},
	{core.IntentComplianceAudit, ComplianceTriggers},
	{core.IntentAnomalyDetection, AnomalyTriggers},
	{core.IntentDocumentClassification, ClassificationTriggers},
}

// InferIntent picks an intent from trigger words in text, defaulting to
// FactFinding.
func InferIntent(text string) core.Intent {
	for _, it := range intentTriggers {
		if extract.HasAnyWord(text, it.words...) {
			return it.intent
		}
	}
	return core.IntentFactFinding
}

// Mentions reports whether text contains any of the triggers.
func Mentions(text string, triggers []string) bool {
	return extract.HasAnyWord(text, triggers...)
}

// intentAliases maps lowercased hint words to intents, in addition to the
// intent names themselves.
var intentAliases = map[string]core.Intent{
	"fact":          core.IntentFactFinding,
	"facts":         core.IntentFactFinding,
	"relationship":  core.IntentRelationshipMapping,
	"relationships": core.IntentRelationshipMapping,
	"connections":   core.IntentRelationshipMapping,
	"timeline":      core.IntentTimelineAnalysis,
	"chronology":    core.IntentTimelineAnalysis,
	"risk":          core.IntentRiskAssessment,
	"risks":         core.IntentRiskAssessment,
	"entities":      core.IntentEntityExtraction,
	"people":        core.IntentEntityExtraction,
	"companies":     core.IntentEntityExtraction,
	"classify":      core.IntentDocumentClassification,
	"categorize":    core.IntentDocumentClassification,
	"anomaly":       core.IntentAnomalyDetection,
	"unusual":       core.IntentAnomalyDetection,
	"compliance":    core.IntentComplianceAudit,
	"regulatory":    core.IntentComplianceAudit,
}
