package search

import "github.com/poiesic/quarry/core"

// SearchQuery is a caller's request.
type SearchQuery struct {
	Query              string
	Context            string
	IntentHint         string
	ScopeHint          string
	PriorityHint       string
	RelationshipDepth  int
	TimeLimitMs        int
	IncludeSuggestions bool
	UserID             string
}

// IntelligentSearchResponse is an AnalysisResult plus the views derived
// from it. Its Recommendations field holds structured recommendations; the
// plain text ones remain reachable through AnalysisResult.Recommendations.
type IntelligentSearchResponse struct {
	core.AnalysisResult

	DirectMatches       []DirectMatch
	RelatedConcepts     []RelatedConcept
	Insights            []Insight
	RiskIndicators      []RiskIndicator
	ComplianceFlags     []ComplianceFlag
	Anomalies           []Anomaly
	Recommendations     []Recommendation
	RelatedQueries      []string
	CacheHit            bool
	DeadEndsEncountered int
	SearchDepthAchieved int
}

// MatchType describes how a document matched.
type MatchType string

const (
	MatchExact      MatchType = "ExactMatch"
	MatchConceptual MatchType = "ConceptualMatch"
	MatchSemantic   MatchType = "SemanticMatch"
	MatchPattern    MatchType = "PatternMatch"
	MatchEntity     MatchType = "EntityMatch"
)

// DirectMatch is the strongest piece of evidence found in one document.
type DirectMatch struct {
	DocumentID      core.ID
	Title           string
	Excerpt         string
	RelevanceScore  float32
	MatchType       MatchType
	HighlightedText string
	ContextWindow   string
	SourceType      string
}

// RelatedConcept is a concept the scouts surfaced alongside the query.
type RelatedConcept struct {
	Concept             string
	RelevanceScore      float32
	SupportingDocuments []core.ID
	RelationshipType    string
	Confidence          float32
}

// InsightType classifies an insight.
type InsightType string

const (
	InsightPatternDiscovery          InsightType = "PatternDiscovery"
	InsightTrendAnalysis             InsightType = "TrendAnalysis"
	InsightAnomalyDetection          InsightType = "AnomalyDetection"
	InsightRiskAssessment            InsightType = "RiskAssessment"
	InsightOpportunityIdentification InsightType = "OpportunityIdentification"
	InsightComplianceGap             InsightType = "ComplianceGap"
	InsightRelationshipMapping       InsightType = "RelationshipMapping"
)

// InsightPriority ranks insights.
type InsightPriority string

const (
	InsightCritical      InsightPriority = "Critical"
	InsightHigh          InsightPriority = "High"
	InsightMedium        InsightPriority = "Medium"
	InsightLow           InsightPriority = "Low"
	InsightInformational InsightPriority = "Informational"
)

// Insight is an observation about the result as a whole.
type Insight struct {
	Type               InsightType
	Description        string
	Confidence         float32
	SupportingEvidence []string
	Actionable         bool
	Priority           InsightPriority
}

// RiskType classifies a risk indicator.
type RiskType string

const (
	RiskLegal        RiskType = "Legal"
	RiskCompliance   RiskType = "Compliance"
	RiskFinancial    RiskType = "Financial"
	RiskOperational  RiskType = "Operational"
	RiskReputational RiskType = "Reputational"
	RiskRegulatory   RiskType = "Regulatory"
	RiskPrivacy      RiskType = "Privacy"
)

// Severity grades risks and anomalies.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// RiskIndicator summarizes the risk findings of one risk type.
type RiskIndicator struct {
	Type                  RiskType
	Severity              Severity
	Description           string
	AffectedDocuments     []core.ID
	MitigationSuggestions []string
	Confidence            float32
}

// ComplianceFlagType classifies a compliance flag.
type ComplianceFlagType string

const (
	FlagViolation   ComplianceFlagType = "Violation"
	FlagRisk        ComplianceFlagType = "Risk"
	FlagGap         ComplianceFlagType = "Gap"
	FlagRequirement ComplianceFlagType = "Requirement"
)

// ComplianceFlag summarizes the compliance findings for one regulation and
// flag type.
type ComplianceFlag struct {
	Regulation          string
	Type                ComplianceFlagType
	Description         string
	AffectedDocuments   []core.ID
	RemediationRequired bool
	Confidence          float32
}

// AnomalyType classifies an anomaly.
type AnomalyType string

const (
	AnomalyUnusualPattern AnomalyType = "UnusualPattern"
	AnomalyOutlierValue   AnomalyType = "OutlierValue"
	AnomalyTemporal       AnomalyType = "TemporalAnomaly"
	AnomalyRelationship   AnomalyType = "RelationshipAnomaly"
	AnomalyContent        AnomalyType = "ContentAnomaly"
	AnomalyVolume         AnomalyType = "VolumeAnomaly"
)

// Anomaly summarizes the anomaly findings of one anomaly type.
type Anomaly struct {
	Type              AnomalyType
	Description       string
	Severity          Severity
	AffectedDocuments []core.ID
	DetectionMethod   string
	RequiresReview    bool
}

// RecommendationType classifies a recommendation.
type RecommendationType string

const (
	RecommendQueryRefinement       RecommendationType = "QueryRefinement"
	RecommendAdditionalSearch      RecommendationType = "AdditionalSearch"
	RecommendDocumentReview        RecommendationType = "DocumentReview"
	RecommendProcessImprovement    RecommendationType = "ProcessImprovement"
	RecommendComplianceAction      RecommendationType = "ComplianceAction"
	RecommendRiskMitigation        RecommendationType = "RiskMitigation"
	RecommendInvestigationRequired RecommendationType = "InvestigationRequired"
)

// RecommendationPriority ranks recommendations.
type RecommendationPriority string

const (
	PriorityUrgent RecommendationPriority = "Urgent"
	PriorityHigh   RecommendationPriority = "High"
	PriorityMedium RecommendationPriority = "Medium"
	PriorityLow    RecommendationPriority = "Low"
)

// Effort estimates how much work a recommendation takes.
type Effort string

const (
	EffortMinimal   Effort = "Minimal"
	EffortLow       Effort = "Low"
	EffortMedium    Effort = "Medium"
	EffortHigh      Effort = "High"
	EffortExtensive Effort = "Extensive"
)

// Recommendation is a structured follow-up action.
type Recommendation struct {
	Type             RecommendationType
	Description      string
	Priority         RecommendationPriority
	EstimatedImpact  string
	Effort           Effort
	RelatedDocuments []core.ID
}
