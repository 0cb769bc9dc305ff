package modelbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
)

// treeNode is one node of an XGBoost JSON dump (Booster.get_dump with
// dump_format="json"). Leaves carry Leaf; split nodes carry Children.
type treeNode struct {
	NodeID         int        `json:"nodeid"`
	Split          string     `json:"split"`
	SplitCondition float64    `json:"split_condition"`
	Yes            int        `json:"yes"`
	No             int        `json:"no"`
	Missing        int        `json:"missing"`
	Leaf           *float64   `json:"leaf"`
	Children       []treeNode `json:"children"`
}

type treeArtifact struct {
	BaseScore    float64    `json:"base_score"`
	FeatureNames []string   `json:"feature_names"`
	Trees        []treeNode `json:"trees"`
}

type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	yes       int
	no        int
	missing   int
}

type tree struct {
	root  int
	nodes map[int]node
}

// TreeEnsemble evaluates a gradient-boosted regression tree dump.
type TreeEnsemble struct {
	baseScore float64
	nFeatures int
	trees     []tree
}

func LoadTreeEnsemble(path string) (*TreeEnsemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read regression model: %w", err)
	}

	m, err := ParseTreeEnsemble(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("loaded regression model", "path", path, "trees", len(m.trees), "base_score", m.baseScore)
	return m, nil
}

func ParseTreeEnsemble(data []byte) (*TreeEnsemble, error) {
	var a treeArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal regression model: %w", err)
	}
	if len(a.Trees) == 0 {
		return nil, errors.New("regression model has no trees")
	}

	names := a.FeatureNames
	if len(names) == 0 {
		names = RegressionFeatures
	}
	if len(names) != len(RegressionFeatures) {
		return nil, fmt.Errorf("regression model expects %d features, want %d", len(names), len(RegressionFeatures))
	}

	m := &TreeEnsemble{
		baseScore: a.BaseScore,
		nFeatures: len(names),
		trees:     make([]tree, 0, len(a.Trees)),
	}
	for i, root := range a.Trees {
		t := tree{root: root.NodeID, nodes: make(map[int]node)}
		if err := t.flatten(root, names); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		m.trees = append(m.trees, t)
	}

	return m, nil
}

func (t tree) flatten(n treeNode, names []string) error {
	if _, dup := t.nodes[n.NodeID]; dup {
		return fmt.Errorf("duplicate node id %d", n.NodeID)
	}

	if n.Leaf != nil {
		t.nodes[n.NodeID] = node{leaf: true, value: *n.Leaf}
		return nil
	}

	feature, err := featureIndex(n.Split, names)
	if err != nil {
		return fmt.Errorf("node %d: %w", n.NodeID, err)
	}
	t.nodes[n.NodeID] = node{
		feature:   feature,
		threshold: n.SplitCondition,
		yes:       n.Yes,
		no:        n.No,
		missing:   n.Missing,
	}

	for _, c := range n.Children {
		if err := t.flatten(c, names); err != nil {
			return err
		}
	}
	return nil
}

// featureIndex resolves a named split or XGBoost's positional "f<N>" to a
// position in RegressionFeatures. Model columns that use the canonical names
// may come in any order; other names are taken positionally.
func featureIndex(split string, names []string) (int, error) {
	pos := -1
	for i, n := range names {
		if n == split {
			pos = i
			break
		}
	}
	if pos < 0 {
		if rest, ok := strings.CutPrefix(split, "f"); ok {
			if i, err := strconv.Atoi(rest); err == nil && i >= 0 && i < len(names) {
				pos = i
			}
		}
	}
	if pos < 0 {
		return 0, fmt.Errorf("unknown split feature %q", split)
	}

	for i, canonical := range RegressionFeatures {
		if names[pos] == canonical {
			return i, nil
		}
	}
	return pos, nil
}

func (t tree) validate() error {
	if _, ok := t.nodes[t.root]; !ok {
		return errors.New("missing root node")
	}
	for id, n := range t.nodes {
		if n.leaf {
			continue
		}
		for _, next := range []int{n.yes, n.no, n.missing} {
			if _, ok := t.nodes[next]; !ok {
				return fmt.Errorf("node %d points to missing node %d", id, next)
			}
		}
	}
	return nil
}

func (t tree) eval(x []float64) (float64, error) {
	id := t.root
	// A well-formed tree reaches a leaf in fewer steps than it has nodes.
	for i, steps := 0, len(t.nodes); i < steps; i++ {
		n := t.nodes[id]
		if n.leaf {
			return n.value, nil
		}
		v := x[n.feature]
		switch {
		case math.IsNaN(v):
			id = n.missing
		case v < n.threshold:
			id = n.yes
		default:
			id = n.no
		}
	}
	return 0, errors.New("tree traversal did not reach a leaf")
}

func (m *TreeEnsemble) Predict(ctx context.Context, features []float64) (float64, error) {
	if len(features) != m.nFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", m.nFeatures, len(features))
	}

	out := m.baseScore
	for i, t := range m.trees {
		v, err := t.eval(features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		out += v
	}
	return out, nil
}
