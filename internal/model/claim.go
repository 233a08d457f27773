package model

// ClaimType categorizes the nature of a claim
type ClaimType string

const (
	ClaimTypeFactual            ClaimType = "factual"             // Checkable statement of fact
	ClaimTypeOpinion            ClaimType = "opinion"             // Subjective judgment
	ClaimTypePrediction         ClaimType = "prediction"          // Statement about the future
	ClaimTypePersonalExperience ClaimType = "personal_experience" // First-person account
	ClaimTypeLegal              ClaimType = "legal"               // Claims about legal/official status
)

// Claim represents a factual assertion produced by the upstream extraction
// stage. It is immutable once it reaches the verification engine.
type Claim struct {
	Text         string    `json:"text"`
	Type         ClaimType `json:"claim_type"`
	IsVerifiable bool      `json:"is_verifiable"`
}
