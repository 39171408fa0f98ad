package indexer

import "github.com/yuin/goldmark/ast"

// VisitAction tells the traversal driver how to proceed after a node is entered.
type VisitAction int

const (
	// VisitContinue descends into the node's children.
	VisitContinue VisitAction = iota
	// VisitSkipChildren moves on to the next sibling without descending.
	VisitSkipChildren
	// VisitStop ends the traversal.
	VisitStop
)

// Visitor receives enter/leave callbacks from Traverse. Leave is called for
// every node whose Enter returned VisitContinue or VisitSkipChildren.
type Visitor interface {
	Enter(n ast.Node) VisitAction
	Leave(n ast.Node)
}

// Traverse walks the tree rooted at n depth-first. It returns false if the
// visitor stopped the walk.
func Traverse(n ast.Node, v Visitor) bool {
	switch v.Enter(n) {
	case VisitStop:
		return false
	case VisitSkipChildren:
		v.Leave(n)
		return true
	}

	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if !Traverse(child, v) {
			return false
		}
	}
	v.Leave(n)
	return true
}
