package agent

import (
	"fmt"
	"strings"

	"github.com/medvoice-ai/medvoice/pkg/core"
)

// Graph is an immutable set of agents keyed by name, with one designated
// root. Construction validates the transfer topology and injects the
// transfer tool; after that the graph never changes.
type Graph struct {
	root   string
	order  []string
	agents map[string]Agent
}

// NewGraph builds a graph from the given agents. Every Downstream reference
// must resolve to an agent in the set, names must be unique, and no agent
// may declare its own tool named like the injected transfer tool. Agents
// with at least one downstream get the transfer tool appended; agents with
// none are terminal and get no transfer tool.
func NewGraph(root string, agents ...Agent) (*Graph, error) {
	if len(agents) == 0 {
		return nil, core.NewInvalidRequestError("agent graph needs at least one agent")
	}

	byName := make(map[string]Agent, len(agents))
	order := make([]string, 0, len(agents))
	for _, a := range agents {
		if a.Name == "" {
			return nil, core.NewInvalidRequestError("agent with empty name")
		}
		if _, dup := byName[a.Name]; dup {
			return nil, core.NewInvalidRequestError(fmt.Sprintf("duplicate agent name %q", a.Name))
		}
		if _, has := a.FindTool(TransferToolName); has {
			return nil, core.NewInvalidRequestError(
				fmt.Sprintf("agent %q declares reserved tool %q", a.Name, TransferToolName))
		}
		byName[a.Name] = a
		order = append(order, a.Name)
	}
	if _, ok := byName[root]; !ok {
		return nil, core.NewNotFoundError(fmt.Sprintf("root agent %q not in set", root))
	}

	for _, name := range order {
		a := byName[name]
		if len(a.Downstream) == 0 {
			continue
		}
		targets := make([]Agent, 0, len(a.Downstream))
		for _, d := range a.Downstream {
			target, ok := byName[d]
			if !ok {
				return nil, core.NewInvalidRequestError(
					fmt.Sprintf("agent %q transfers to unknown agent %q", name, d))
			}
			targets = append(targets, target)
		}
		a.Tools = append(a.Tools, transferTool(targets))
		byName[name] = a
	}

	return &Graph{root: root, order: order, agents: byName}, nil
}

// Root returns the graph's entry agent.
func (g *Graph) Root() Agent {
	return g.agents[g.root]
}

// Lookup resolves an agent by name across the whole set, not just the
// caller's downstream list. Transfers are validated against this full set.
func (g *Graph) Lookup(name string) (Agent, bool) {
	a, ok := g.agents[name]
	return a, ok
}

// Names returns the agent names in registration order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

func transferTool(targets []Agent) Tool {
	names := make([]string, len(targets))
	var list strings.Builder
	for i, t := range targets {
		names[i] = t.Name
		desc := t.PublicDescription
		if desc == "" {
			desc = "No description"
		}
		fmt.Fprintf(&list, "- %s: %s\n", t.Name, desc)
	}

	return Tool{
		Name: TransferToolName,
		Description: "Triggers a transfer of the user to a more specialized agent. " +
			"Only call this function if one of the available agents is appropriate. " +
			"Do not transfer to your own agent type.\n\nAvailable agents:\n" + list.String(),
		Parameters: Schema{
			Type: "object",
			Properties: map[string]Property{
				"rationale_for_transfer": {
					Type:        "string",
					Description: "The reasoning why this transfer is needed.",
				},
				"conversation_context": {
					Type:        "string",
					Description: "Relevant context from the conversation that will help the recipient perform the correct action.",
				},
				"destination_agent": {
					Type:        "string",
					Description: "The name of the agent to transfer to.",
					Enum:        names,
				},
			},
			Required: []string{"destination_agent"},
		},
	}
}
