// Package graph builds the bipartite metabolite/reaction network of a model
// and runs topology diagnostics on it: dead-end metabolites, orphan
// metabolites and structurally empty reactions surface before any solve is
// attempted.
package graph

// NodeType represents the semantic type of a node in the network.
type NodeType string

const (
	NodeMetabolite NodeType = "metabolite"
	NodeReaction   NodeType = "reaction"
)

// EdgeType represents the semantic relationship between two nodes.
type EdgeType string

const (
	EdgeConsumes EdgeType = "consumes" // Reaction -> Metabolite (negative coefficient)
	EdgeProduces EdgeType = "produces" // Reaction -> Metabolite (positive coefficient)
)

// Node represents a vertex in the network.
type Node struct {
	ID         string            `json:"id"`
	Type       NodeType          `json:"type"`
	Label      string            `json:"label"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Edge represents a directed connection between two nodes.
type Edge struct {
	FromID string   `json:"from_id"`
	ToID   string   `json:"to_id"`
	Type   EdgeType `json:"type"`
	Coeff  float64  `json:"coeff"`
}

// Network is a snapshot of the model's stoichiometric connectivity.
type Network struct {
	Nodes map[string]*Node `json:"nodes"`
	Edges []*Edge          `json:"edges"`
}

// NewNetwork creates an empty network.
func NewNetwork() *Network {
	return &Network{
		Nodes: make(map[string]*Node),
		Edges: make([]*Edge, 0),
	}
}

// AddNode adds a node to the network.
func (n *Network) AddNode(node *Node) {
	n.Nodes[node.ID] = node
}

// AddEdge adds an edge to the network.
func (n *Network) AddEdge(e *Edge) {
	n.Edges = append(n.Edges, e)
}
