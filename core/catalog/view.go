package catalog

import "melotree/model"

// TreeView is the wire-facing projection of a node tree. It is cycle-free:
// year and genre nodes are rendered as leaves, dropping their back-link to the
// owning track, so the projection marshals cleanly to JSON.
type TreeView struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Kind     model.NodeKind `json:"kind"`
	Expanded bool           `json:"expanded"`
	Children []*TreeView    `json:"children"`
}

// Project converts a built tree into its JSON projection. Expanded flags are
// all false; apply per-user state with ApplyState.
func Project(root *model.Node) *TreeView {
	if root == nil {
		return nil
	}

	view := &TreeView{
		ID:       root.ID,
		Label:    root.Label,
		Kind:     root.Kind,
		Children: make([]*TreeView, 0, len(root.Children)),
	}

	// Year and genre nodes are leaves in the visual hierarchy; their Children
	// hold the track back-link and must not be descended into.
	if root.Kind == model.KindYear || root.Kind == model.KindGenre {
		return view
	}

	for _, child := range root.Children {
		view.Children = append(view.Children, Project(child))
	}
	return view
}

// ApplyState marks the nodes whose identities appear in expanded. It mutates
// the view in place; the underlying node tree is never touched.
func ApplyState(view *TreeView, expanded map[string]bool) {
	if view == nil {
		return
	}
	view.Expanded = expanded[view.ID]
	for _, child := range view.Children {
		ApplyState(child, expanded)
	}
}
