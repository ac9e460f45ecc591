package core

import "time"

// ScoutKind names a search strategy a worker can run.
type ScoutKind string

const (
	ScoutKeywordHunter      ScoutKind = "KeywordHunter"
	ScoutPatternDetector    ScoutKind = "PatternDetector"
	ScoutRelationshipMapper ScoutKind = "RelationshipMapper"
	ScoutTimelineBuilder    ScoutKind = "TimelineBuilder"
	ScoutEntityExtractor    ScoutKind = "EntityExtractor"
	ScoutAnomalySpotter     ScoutKind = "AnomalySpotter"
	ScoutComplianceChecker  ScoutKind = "ComplianceChecker"
	ScoutSentimentAnalyzer  ScoutKind = "SentimentAnalyzer"
)

// ScoutKinds lists every worker kind in deployment order.
var ScoutKinds = []ScoutKind{
	ScoutKeywordHunter,
	ScoutPatternDetector,
	ScoutRelationshipMapper,
	ScoutTimelineBuilder,
	ScoutEntityExtractor,
	ScoutAnomalySpotter,
	ScoutComplianceChecker,
	ScoutSentimentAnalyzer,
}

// ScoutStatus is a worker lifecycle state.
//
//	Deployed -> Searching -> {FoundLead | DeadEnd} -> ReportingBack -> {Completed | Failed}
type ScoutStatus string

const (
	ScoutDeployed      ScoutStatus = "Deployed"
	ScoutSearching     ScoutStatus = "Searching"
	ScoutFoundLead     ScoutStatus = "FoundLead"
	ScoutDeadEnd       ScoutStatus = "DeadEnd"
	ScoutReportingBack ScoutStatus = "ReportingBack"
	ScoutCompleted     ScoutStatus = "Completed"
	ScoutFailed        ScoutStatus = "Failed"
)

// Terminal reports whether the status is Completed or Failed.
func (s ScoutStatus) Terminal() bool {
	return s == ScoutCompleted || s == ScoutFailed
}

// FindingType classifies a single piece of evidence.
type FindingType string

const (
	FindingDirectMatch      FindingType = "DirectMatch"
	FindingRelatedConcept   FindingType = "RelatedConcept"
	FindingPersonMention    FindingType = "PersonMention"
	FindingCompanyReference FindingType = "CompanyReference"
	FindingDateReference    FindingType = "DateReference"
	FindingMonetaryAmount   FindingType = "MonetaryAmount"
	FindingLegalTerm        FindingType = "LegalTerm"
	FindingRiskIndicator    FindingType = "RiskIndicator"
	FindingComplianceFlag   FindingType = "ComplianceFlag"
	FindingAnomaly          FindingType = "Anomaly"
)

// EntityType returns the entity type a finding names, and false when the
// finding type does not carry an entity.
func (t FindingType) EntityType() (EntityType, bool) {
	switch t {
	case FindingPersonMention:
		return EntityPerson, true
	case FindingCompanyReference:
		return EntityCompany, true
	case FindingDateReference:
		return EntityDate, true
	case FindingMonetaryAmount:
		return EntityAmount, true
	case FindingLegalTerm:
		return EntityLegal, true
	}
	return "", false
}

// Metadata keys used on findings.
const (
	// MetaEntity holds the matched entity text of an entity-bearing finding.
	MetaEntity = "entity"
	// MetaPattern holds the search pattern that produced the finding.
	MetaPattern = "pattern"
	// MetaTerm holds the lexicon term a pattern/risk/compliance finding matched.
	MetaTerm = "term"
	// MetaCategory holds a strategy specific category (risk type, regulation, sentiment).
	MetaCategory = "category"
	// MetaScore holds a strategy specific numeric score rendered as text.
	MetaScore = "score"
	// MetaTitle holds the display title of the source document.
	MetaTitle = "title"
	// MetaFlag holds the compliance flag type of a ComplianceFlag finding.
	MetaFlag = "flag"
)

// Finding is one atomic piece of evidence produced by exactly one worker.
type Finding struct {
	DocumentID      ID
	Scout           ScoutKind
	Type            FindingType
	Confidence      float32
	Excerpt         string
	Context         string
	RelatedEntities []string
	Metadata        map[string]string
	ProcessingTime  time.Duration
}

// ScoutReport is what a worker hands back to the pool once it is done.
type ScoutReport struct {
	ScoutID        string
	Kind           ScoutKind
	Status         ScoutStatus
	Patterns       []string
	Findings       []Finding
	DeadEnds       int
	DeadEndPaths   []string
	ProcessingTime time.Duration
	Err            error // set when the worker could not run at all
	Reported       bool  // false when the worker never reported (not started or missed the deadline)
}
