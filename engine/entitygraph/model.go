// Package entitygraph provides the Neo4j-backed weighted entity graph that
// backs the Scoring & Commit Engine's reinforcement step (§4.N), adapting
// the teacher's generic Component/Edge graph repository to domains,
// principles, rules, and claims instead of vehicle wiring.
package entitygraph

// EntityNode is a weighted node in the doctrine graph: a domain, or an
// entity mentioned by a committed memory.
type EntityNode struct {
	ID     string  `json:"id"`
	Kind   string  `json:"kind"` // domain|entity
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Relationship links a committed memory's domain node to an entity it mentions.
type Relationship struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"` // MENTIONS
}
