package reporters

// SARIF 2.1.0 log structures.

const (
	SarifVersion = "2.1.0"
	SarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
)

type SarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema,omitempty"`
	Runs    []SarifRun `json:"runs"`
}

type SarifRun struct {
	Tool    SarifTool     `json:"tool"`
	Results []SarifResult `json:"results"`
}

type SarifTool struct {
	Driver SarifDriver `json:"driver"`
}

type SarifDriver struct {
	Name           string                `json:"name"`
	Version        string                `json:"version,omitempty"`
	InformationURI string                `json:"informationUri,omitempty"`
	Rules          []SarifRuleDescriptor `json:"rules,omitempty"`
}

type SarifRuleDescriptor struct {
	ID               string               `json:"id"`
	Name             string               `json:"name,omitempty"`
	ShortDescription *SarifMessage        `json:"shortDescription,omitempty"`
	FullDescription  *SarifMessage        `json:"fullDescription,omitempty"`
	Properties       *SarifRuleProperties `json:"properties,omitempty"`
}

type SarifRuleProperties struct {
	Category string `json:"category,omitempty"`
	Severity string `json:"severity,omitempty"`
}

type SarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level,omitempty"`
	Message   SarifMessage    `json:"message"`
	Locations []SarifLocation `json:"locations,omitempty"`
}

type SarifMessage struct {
	Text string `json:"text"`
}

type SarifLocation struct {
	PhysicalLocation *SarifPhysicalLocation `json:"physicalLocation,omitempty"`
	LogicalLocations []SarifLogicalLocation `json:"logicalLocations,omitempty"`
}

type SarifPhysicalLocation struct {
	ArtifactLocation SarifArtifactLocation `json:"artifactLocation"`
	Region           *SarifRegion          `json:"region,omitempty"`
}

type SarifArtifactLocation struct {
	URI string `json:"uri"`
}

type SarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

type SarifLogicalLocation struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
	Kind               string `json:"kind,omitempty"`
}
