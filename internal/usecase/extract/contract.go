package extract

import "context"

// IntentModel proposes a structured intent for a free-text message.
// Implementations must honor ctx cancellation; the service applies its own
// timeout on top.
type IntentModel interface {
	ParseIntent(ctx context.Context, message string, allowedTags []string) (ModelIntent, error)
}

// ModelIntent is the raw model proposal, before sanitation. Everything in
// it is untrusted: tags may be outside the ontology, numerics may be
// hallucinated, the location may be wrong.
type ModelIntent struct {
	Query       string
	IncludeTags []string
	ExcludeTags []string
	BogMax      *int
	GradeMax    *int
	Location    string
}
