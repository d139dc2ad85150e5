package doctrine

import (
	"fmt"
	"strings"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
)

// ToNodes implements the Node Builder (§4.E): each item becomes an atomic
// node with a canonical, per-type-per-chapter sequence-numbered id.
func ToNodes(d domain.Doctrine, bookPrefix string) []domain.Node {
	prefix := strings.ToUpper(strings.ReplaceAll(bookPrefix, "\n", ""))
	idx := d.ChapterIndex

	var dom domain.Domain
	if len(d.Domains) > 0 {
		dom = d.Domains[0]
	}

	var nodes []domain.Node

	for seq, p := range d.Principles {
		nodes = append(nodes, domain.Node{
			NodeID: nodeID(prefix, idx, domain.NodePrinciple, seq+1),
			Type:   domain.NodePrinciple,
			Text:   p.Statement,
			Metadata: domain.NodeMetadata{
				Chapter:        idx,
				Domain:         dom,
				AbstractedFrom: p.AbstractedFrom,
				SourceID:       p.ID,
			},
		})
	}

	for seq, r := range d.Rules {
		nodes = append(nodes, domain.Node{
			NodeID: nodeID(prefix, idx, domain.NodeRule, seq+1),
			Type:   domain.NodeRule,
			Text:   fmt.Sprintf("IF %s THEN %s", r.Condition, r.Action),
			Metadata: domain.NodeMetadata{
				Chapter: idx,
				Domain:  dom,
			},
		})
	}

	for seq, w := range d.Warnings {
		nodes = append(nodes, domain.Node{
			NodeID: nodeID(prefix, idx, domain.NodeWarning, seq+1),
			Type:   domain.NodeWarning,
			Text:   fmt.Sprintf("SITUATION: %s. RISK: %s", w.Situation, w.Risk),
			Metadata: domain.NodeMetadata{
				Chapter: idx,
				Domain:  dom,
			},
		})
	}

	for seq, c := range d.Claims {
		nodes = append(nodes, domain.Node{
			NodeID: nodeID(prefix, idx, domain.NodeClaim, seq+1),
			Type:   domain.NodeClaim,
			Text:   fmt.Sprintf("CLAIM: %s", c.Claim),
			Metadata: domain.NodeMetadata{
				Chapter:    idx,
				Domain:     dom,
				Confidence: c.Confidence,
			},
		})
	}

	return nodes
}

func nodeID(prefix string, chapterIdx int, t domain.NodeType, seq int) string {
	return fmt.Sprintf("%s-C%02d-%s-%03d", prefix, chapterIdx, t.TypeLetter(), seq)
}
