package entitygraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// GraphStore provides the weighted-graph operations the scoring engine's
// reinforcement step needs (§4.K, §4.N).
type GraphStore struct {
	driver neo4j.DriverWithContext
}

// New creates a GraphStore over driver.
func New(driver neo4j.DriverWithContext) *GraphStore {
	return &GraphStore{driver: driver}
}

// UpsertNode merges an EntityNode by id. On first creation the node's
// weight is seeded from n.Weight; on every subsequent call n.Weight is
// treated as a delta and added to the stored weight, implementing the
// "bump attention prior" / "bump entity weight" reinforcement semantics.
func (g *GraphStore) UpsertNode(ctx context.Context, n EntityNode) error {
	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := `MERGE (n:EntityNode {id: $id})
		ON CREATE SET n.kind = $kind, n.name = $name, n.weight = $weight
		ON MATCH SET n.weight = coalesce(n.weight, 0) + $weight`
	_, err := sess.Run(ctx, cypher, map[string]any{
		"id":     n.ID,
		"kind":   n.Kind,
		"name":   n.Name,
		"weight": n.Weight,
	})
	return err
}

// UpsertRelationship merges a MENTIONS-style relationship between two
// already-upserted nodes.
func (g *GraphStore) UpsertRelationship(ctx context.Context, r Relationship) error {
	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := fmt.Sprintf(
		`MATCH (a:EntityNode {id: $from}), (b:EntityNode {id: $to})
		 MERGE (a)-[rel:%s {id: $id}]->(b)`,
		sanitizeRelType(r.Type),
	)
	_, err := sess.Run(ctx, cypher, map[string]any{
		"from": r.From,
		"to":   r.To,
		"id":   r.ID,
	})
	return err
}

// RelatedTo returns nodes reachable from nodeID within depth hops.
func (g *GraphStore) RelatedTo(ctx context.Context, nodeID string, depth int) ([]EntityNode, error) {
	if depth <= 0 {
		depth = 1
	}
	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := fmt.Sprintf(
		`MATCH (start:EntityNode {id: $id})-[*1..%d]-(n:EntityNode)
		 WHERE n.id <> $id
		 RETURN DISTINCT n`, depth)
	result, err := sess.Run(ctx, cypher, map[string]any{"id": nodeID})
	if err != nil {
		return nil, err
	}
	return collectEntityNodes(ctx, result)
}

// TopWeighted returns the n highest-weight nodes of the given kind — used by
// the status server to surface "what the system currently believes matters" (§4.P).
func (g *GraphStore) TopWeighted(ctx context.Context, kind string, n int) ([]EntityNode, error) {
	if n <= 0 {
		n = 10
	}
	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := `MATCH (n:EntityNode {kind: $kind}) RETURN n ORDER BY n.weight DESC LIMIT $limit`
	result, err := sess.Run(ctx, cypher, map[string]any{"kind": kind, "limit": n})
	if err != nil {
		return nil, err
	}
	return collectEntityNodes(ctx, result)
}

func collectEntityNodes(ctx context.Context, result neo4j.ResultWithContext) ([]EntityNode, error) {
	var items []EntityNode
	for result.Next(ctx) {
		node, _, err := neo4j.GetRecordValue[dbtype.Node](result.Record(), "n")
		if err != nil {
			return nil, err
		}
		items = append(items, entityNodeFromProps(node.Props))
	}
	return items, nil
}

func sanitizeRelType(t string) string {
	safe := make([]byte, 0, len(t))
	for i := range t {
		c := t[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			safe = append(safe, c)
		}
	}
	if len(safe) == 0 {
		return "MENTIONS"
	}
	for i := range safe {
		if safe[i] >= 'a' && safe[i] <= 'z' {
			safe[i] -= 32
		}
	}
	return string(safe)
}
