package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/homecare/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// Edge is a transition the definition does not declare, such as a
// server-driven branch.
type Edge struct {
	From  string
	To    string
	Label string
}

// SubmitNode is the id of the node every terminal step leads to.
const SubmitNode = "submit"

// GenerateMermaid produces a Mermaid flowchart of a wizard definition.
// It applies semantic styling:
// - First step: ((Circle))
// - Step with conditional questions: {{Hexagon}}
// - Step with file uploads: [/Parallelogram/]
// - Terminal step: [[Subroutine]]
// - Default: [Rectangle]
// Gated transitions are labelled with the required keys. Extra edges are drawn
// dotted. Overlay styles (Visited/Current) are applied if provided.
func GenerateMermaid(def *domain.Definition, overlay *GraphOverlay, extra ...Edge) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if def == nil || len(def.Steps) == 0 {
		return sb.String()
	}

	last := len(def.Steps) - 1
	for i, step := range def.Steps {
		safeID := sanitizeMermaidID(step.ID)

		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case i == last:
			opener, closer = "[[", "]]"
		case step.Conditional != nil:
			opener, closer = "{{", "}}"
		case hasFiles(step):
			opener, closer = "[/", "/]"
		}

		title := step.Title
		if title == "" {
			title = step.ID
		}
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> %d fields\"%s\n", safeID, opener, escapeLabel(title), len(step.Fields), closer)

		to := SubmitNode
		if i < last {
			to = sanitizeMermaidID(def.Steps[i+1].ID)
		}
		arrow := "-->"
		if len(step.Required) > 0 {
			arrow = fmt.Sprintf("-- \"%s\" -->", escapeLabel(strings.Join(step.Required, ", ")))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, to)
	}
	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", SubmitNode, SubmitNode)

	for _, e := range extra {
		arrow := "-.->"
		if e.Label != "" {
			arrow = fmt.Sprintf("-. \"%s\" .->", escapeLabel(e.Label))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To))
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentStep != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep))
		}
	}

	return sb.String()
}

// OverlayFor marks the steps before the current one as visited.
func OverlayFor(def *domain.Definition, st domain.State) *GraphOverlay {
	o := &GraphOverlay{CurrentStep: st.StepID}
	for i := 0; i < st.CurrentStep && i < len(def.Steps); i++ {
		o.VisitedSteps = append(o.VisitedSteps, def.Steps[i].ID)
	}
	return o
}

func hasFiles(s domain.Step) bool {
	for _, f := range s.Fields {
		if f.Kind == domain.KindFile {
			return true
		}
	}
	return false
}

// Escape double quotes for Mermaid labels
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
