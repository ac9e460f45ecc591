package ai

// IntentLabels are the intent names a classifier may return.
// They match the query intents understood by the engine.
var IntentLabels = []string{
	"FactFinding",
	"RelationshipMapping",
	"TimelineAnalysis",
	"RiskAssessment",
	"EntityExtraction",
	"DocumentClassification",
	"AnomalyDetection",
	"ComplianceAudit",
}

// ScopeLabels are the scope names a classifier may return.
var ScopeLabels = []string{
	"Narrow",
	"Focused",
	"Broad",
	"Exhaustive",
}
