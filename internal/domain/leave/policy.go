package leave

import "fmt"

// Policy fixes the submission rules for one leave category.
type Policy struct {
	MinAdvanceHours  int  `json:"minAdvanceHours"`
	DocumentRequired bool `json:"documentRequired"`
}

// PolicyTable is a static category-to-policy mapping. Lookups are pure;
// registration happens once at construction.
type PolicyTable struct {
	entries map[Category]Policy
}

func NewPolicyTable() *PolicyTable {
	return &PolicyTable{entries: make(map[Category]Policy)}
}

func (t *PolicyTable) Register(category Category, policy Policy) {
	t.entries[category] = policy
}

func (t *PolicyTable) Resolve(category Category) (Policy, error) {
	policy, ok := t.entries[category]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %s", ErrUnknownLeaveType, category)
	}
	return policy, nil
}

// Categories returns every registered category, useful for the policy listing
// endpoint. Order is not defined.
func (t *PolicyTable) Categories() []Category {
	out := make([]Category, 0, len(t.entries))
	for category := range t.entries {
		out = append(out, category)
	}
	return out
}

// DefaultPolicyTable registers the two catalogues the portal uses.
// Self-service types carry hour-based notice policies; administrative
// types are recorded by heads and admins without a notice requirement.
func DefaultPolicyTable() *PolicyTable {
	t := NewPolicyTable()

	t.Register(Category{Domain: DomainSelfService, Code: CodePlanned}, Policy{MinAdvanceHours: 48})
	t.Register(Category{Domain: DomainSelfService, Code: CodeUnplanned}, Policy{MinAdvanceHours: 24})
	t.Register(Category{Domain: DomainSelfService, Code: CodeSick}, Policy{MinAdvanceHours: 4, DocumentRequired: true})

	t.Register(Category{Domain: DomainAdministrative, Code: CodeAnnual}, Policy{})
	t.Register(Category{Domain: DomainAdministrative, Code: CodeSick}, Policy{})
	t.Register(Category{Domain: DomainAdministrative, Code: CodeCasual}, Policy{})

	return t
}
