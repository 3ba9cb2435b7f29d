/*
tables.go - Per-kind transition guard tables

PURPOSE:
  One allow-list per entity kind. A transition absent from the table is
  illegal, full stop; the controller renders a locked affordance with an
  explanation rather than hiding the action.

COMPLAINT:
  Pending -> Accepted            (no reason)
  Pending -> Rejected            (reason required)
  Accepted -> Raised             (no reason)
  Terminal: Rejected, Raised, Cancelled

CLEARANCE:
  Pending -> Declined            (reason required)
  Paid is payment-driven: reached through receipt creation in the
  treasurer package, never through a status patch, so it appears in no
  rule here.

SUMMON CASE:
  Filed -> Scheduled
  Scheduled -> Settled
  Scheduled -> Escalated         (reason required)
  Scheduled -> Rescheduled
  Rescheduled -> Scheduled
  Terminal: Settled, Escalated
*/
package lifecycle

// Rule is one allowed transition.
type Rule struct {
	From           Status
	To             Status
	RequiresReason bool
}

// GuardTable is the allow-list for one entity kind.
type GuardTable struct {
	Kind     Kind
	Rules    []Rule
	Terminal []Status
}

// Find returns the rule for a transition, if one exists.
func (gt GuardTable) Find(from, to Status) (Rule, bool) {
	for _, r := range gt.Rules {
		if r.From == from && r.To == to {
			return r, true
		}
	}
	return Rule{}, false
}

// IsTerminal reports whether no transitions leave the status.
func (gt GuardTable) IsTerminal(s Status) bool {
	for _, t := range gt.Terminal {
		if t == s {
			return true
		}
	}
	return false
}

var guardTables = map[Kind]GuardTable{
	KindComplaint: {
		Kind: KindComplaint,
		Rules: []Rule{
			{From: StatusPending, To: StatusAccepted},
			{From: StatusPending, To: StatusRejected, RequiresReason: true},
			{From: StatusAccepted, To: StatusRaised},
		},
		Terminal: []Status{StatusRejected, StatusRaised, StatusCancelled},
	},
	KindClearance: {
		Kind: KindClearance,
		Rules: []Rule{
			{From: StatusPending, To: StatusDeclined, RequiresReason: true},
		},
		Terminal: []Status{StatusDeclined, StatusPaid},
	},
	KindSummon: {
		Kind: KindSummon,
		Rules: []Rule{
			{From: StatusFiled, To: StatusScheduled},
			{From: StatusScheduled, To: StatusSettled},
			{From: StatusScheduled, To: StatusEscalated, RequiresReason: true},
			{From: StatusScheduled, To: StatusRescheduled},
			{From: StatusRescheduled, To: StatusScheduled},
		},
		Terminal: []Status{StatusSettled, StatusEscalated},
	},
}

// TableFor returns the guard table for a kind.
func TableFor(kind Kind) (GuardTable, bool) {
	gt, ok := guardTables[kind]
	return gt, ok
}
