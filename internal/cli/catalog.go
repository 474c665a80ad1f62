package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aretw0/homecare/internal/presentation/graph"
	"github.com/aretw0/homecare/internal/validator"
	"github.com/aretw0/homecare/pkg/flows"
	"gopkg.in/yaml.v3"
)

// ListFlows prints the catalog as a table.
func ListFlows(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTITLE\tSTEPS")
	for _, name := range flows.Names() {
		def, err := flows.Definition(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", def.Name, def.Title, len(def.Steps))
	}
	return tw.Flush()
}

// ShowFlow prints the static definition of a flow as YAML or JSON.
func ShowFlow(name, format string, out io.Writer) error {
	def, err := flows.Definition(name)
	if err != nil {
		return err
	}
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(def)
	case "", "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(def); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", format)
	}
}

// GraphFlow prints the Mermaid diagram of a flow.
func GraphFlow(name string, out io.Writer) error {
	def, err := flows.Definition(name)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, graph.GenerateMermaid(def, nil, extraEdges(name)...))
	return err
}

// extraEdges lists the transitions a flow takes outside its linear order.
func extraEdges(name string) []graph.Edge {
	if name == flows.LoginFlow {
		return []graph.Edge{{From: "otp", To: graph.SubmitNode, Label: "existing account"}}
	}
	return nil
}

// ValidateFlows checks every definition in the catalog.
func ValidateFlows(out io.Writer) error {
	var errs []error
	for _, name := range flows.Names() {
		def, err := flows.Definition(name)
		if err == nil {
			err = validator.ValidateDefinition(def)
		}
		if err != nil {
			errs = append(errs, err)
			fmt.Fprintf(out, "%-14s FAIL  %v\n", name, err)
			continue
		}
		fmt.Fprintf(out, "%-14s ok    %d steps\n", name, len(def.Steps))
	}
	return errors.Join(errs...)
}
