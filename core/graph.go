package core

import "time"

// EntityType classifies a merged entity. Unknown kinds use EntityOther with a tag.
type EntityType string

const (
	EntityPerson     EntityType = "Person"
	EntityCompany    EntityType = "Company"
	EntityLocation   EntityType = "Location"
	EntityDate       EntityType = "Date"
	EntityAmount     EntityType = "Amount"
	EntityContract   EntityType = "Contract"
	EntityLegal      EntityType = "Legal"
	EntityProduct    EntityType = "Product"
	EntityDepartment EntityType = "Department"
	EntityOther      EntityType = "Other"
)

// Entity is a named thing found across one or more documents.
// Entities are keyed by their normalized name.
type Entity struct {
	Name       string
	Type       EntityType
	Tag        string // only set when Type is EntityOther
	Confidence float32
	Documents  []ID
	Aliases    []string
	Metadata   map[string]string
}

// RelationshipType classifies a link between two entities.
type RelationshipType string

const (
	RelationshipWorksFor      RelationshipType = "WorksFor"
	RelationshipContractsWith RelationshipType = "ContractsWith"
	RelationshipReportsTo     RelationshipType = "ReportsTo"
	RelationshipOwns          RelationshipType = "Owns"
	RelationshipNegotiates    RelationshipType = "Negotiates"
	RelationshipCommunicates  RelationshipType = "Communicates"
	RelationshipCompetes      RelationshipType = "Competes"
	RelationshipRegulatory    RelationshipType = "Regulatory"
	RelationshipFinancial     RelationshipType = "Financial"
	RelationshipLegal         RelationshipType = "Legal"
	RelationshipOther         RelationshipType = "Other"
)

// Relationship links two entities by name. It holds keys, not pointers.
type Relationship struct {
	From       string
	To         string
	Type       RelationshipType
	Tag        string // only set when Type is RelationshipOther
	Confidence float32
	Documents  []ID
	Context    string
}

// TimelineEvent is a dated occurrence found in the corpus.
type TimelineEvent struct {
	ID         string
	Timestamp  time.Time
	EventType  string
	Summary    string
	Entities   []string
	Documents  []ID
	Importance float32
}

// TimeSpan is an inclusive time interval.
type TimeSpan struct {
	Start time.Time
	End   time.Time
}

// DocumentCluster groups documents sharing a dominant theme.
type DocumentCluster struct {
	ID          string
	Theme       string
	Documents   []ID
	KeyConcepts []string
	Span        *TimeSpan
	Relevance   float32
}
