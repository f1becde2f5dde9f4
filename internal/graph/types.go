package graph

// NodeKind categorizes a vertex in a definition graph.
type NodeKind string

const (
	KindAccount        NodeKind = "account"
	KindConstant       NodeKind = "constant"
	KindInstructionArg NodeKind = "instruction_arg"
	KindSystemAccount  NodeKind = "system_account"
)

// Node represents one entity referenced by a constraint struct.
type Node struct {
	ID     int      `json:"id"`
	Label  string   `json:"label"`
	Kind   NodeKind `json:"kind"`
	Review bool     `json:"review,omitempty"`
}

// Edge represents a directed definition relation between two nodes.
// Multiplicity is meaningful: independent checks are recorded separately,
// never coalesced.
type Edge struct {
	From     int    `json:"from"`
	To       int    `json:"to"`
	Relation string `json:"relation"`
	Review   bool   `json:"review,omitempty"`
}

// Relation vocabulary. Closed set: the renderer and classifier switch on
// these values.
const (
	RelationSeed           = "seed"
	RelationConstantSeed   = "constant_seed"
	RelationFieldsSeed     = "fields_seed"
	RelationCustom         = "custom"
	RelationContainsAsSeed = "contains_as_seed"
	RelationATMint         = "AT_mint"
	RelationATAuthority    = "AT_authority"
)
