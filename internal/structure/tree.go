package structure

import "fmt"

// OutlineNode is a node of the reconstructed section tree.
type OutlineNode struct {
	Title         string         `json:"title"`
	NodeID        string         `json:"node_id"`
	Level         int            `json:"level"`
	Page          int            `json:"page,omitempty"`
	SequenceIndex int            `json:"sequence_index"`
	Children      []*OutlineNode `json:"nodes,omitempty"`
}

// Anchor is the HTML id of the heading the node points at.
func (n *OutlineNode) Anchor() string {
	return "sec-" + n.NodeID
}

// HeadingNodes converts emitted headings into flat tree nodes.
func HeadingNodes(headings []Heading) []*OutlineNode {
	nodes := make([]*OutlineNode, 0, len(headings))
	for i, h := range headings {
		nodes = append(nodes, &OutlineNode{
			Title:         h.Text,
			NodeID:        padNodeID(i + 1),
			Level:         h.Level,
			Page:          h.Block.Page,
			SequenceIndex: h.Block.SequenceIndex,
		})
	}
	return nodes
}

// EntryNodes converts outline entries into flat tree nodes. Skipped entries
// are left out.
func EntryNodes(entries []OutlineEntry) []*OutlineNode {
	var nodes []*OutlineNode
	for _, e := range entries {
		if e.Skipped {
			continue
		}
		n := &OutlineNode{
			Title:         e.Title,
			NodeID:        padNodeID(len(nodes) + 1),
			Level:         e.Level,
			SequenceIndex: e.SequenceIndex,
		}
		if e.PageHint != nil {
			n.Page = *e.PageHint
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// BuildTree nests a flat list of nodes by level. A node becomes the child of
// the nearest preceding node with a lower level.
func BuildTree(nodes []*OutlineNode) []*OutlineNode {
	type stackEntry struct {
		node  *OutlineNode
		level int
	}

	var stack []stackEntry
	var roots []*OutlineNode
	for _, n := range nodes {
		level := n.Level
		if level == 0 {
			level = 1
		}

		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, n)
		}
		stack = append(stack, stackEntry{node: n, level: level})
	}
	return roots
}

// FlattenTree returns all nodes in depth-first order.
func FlattenTree(nodes []*OutlineNode) []*OutlineNode {
	var result []*OutlineNode
	var walk func([]*OutlineNode)
	walk = func(children []*OutlineNode) {
		for _, n := range children {
			result = append(result, n)
			walk(n.Children)
		}
	}
	walk(nodes)
	return result
}

// CountByLevel tallies nodes per heading level.
func CountByLevel(nodes []*OutlineNode) map[int]int {
	counts := map[int]int{}
	for _, n := range FlattenTree(nodes) {
		counts[n.Level]++
	}
	return counts
}

func padNodeID(id int) string {
	return fmt.Sprintf("%04d", id)
}
