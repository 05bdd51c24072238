package model

// Rule is the parsed form of one DSL rule: a name, a match expression
// (must be an Opcode), an ordered conjunction of constraints, and a
// replacement expression.
type Rule struct {
	Name        string
	Match       *Opcode
	Constraints []*Constraint
	Replace     Token
}

// PrettyLines renders the rule back into its DSL-like documentation
// form, one line per element, matching the original tool's
// _get_pretty_rule layout.
func (r *Rule) PrettyLines() []string {
	if len(r.Constraints) == 0 {
		return []string{r.Match.ToPretty() + " => " + r.Replace.ToPretty()}
	}

	lines := []string{r.Match.ToPretty() + " :- {"}
	for _, c := range r.Constraints {
		lines = append(lines, "    "+c.ToPretty())
	}
	lines = append(lines, "} => "+r.Replace.ToPretty())
	return lines
}
