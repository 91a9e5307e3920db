package reconcile

import "strings"

// Decision is the plan-phase verdict for one record.
type Decision struct {
	Record Record

	// Admit is true when the record proceeds to synthesis.
	Admit bool

	// Reason explains a skip. Empty for admitted records.
	Reason string
}

// Plan holds the per-record decisions of a run, in fetch order.
type Plan struct {
	Decisions []Decision

	// Admitted counts records that pass both the skip check and the limit.
	Admitted int

	// HasAudio counts records skipped because their target is already filled.
	HasAudio int

	// LimitReached counts records skipped because the limit was exhausted.
	LimitReached int
}

// BuildPlan applies the skip policy and the limit to records. It only
// inspects field values already fetched and never calls a remote service.
func BuildPlan(records []Record, job Job) *Plan {
	plan := &Plan{Decisions: make([]Decision, 0, len(records))}
	limit, limited := -1, job.Limit != nil
	if limited {
		limit = *job.Limit
	}

	for _, rec := range records {
		// Once the limit is hit the remaining records are not inspected at all.
		if limited && plan.Admitted >= limit {
			plan.Decisions = append(plan.Decisions, Decision{Record: rec, Reason: ReasonLimitReached})
			plan.LimitReached++
			continue
		}

		if !job.Overwrite && strings.TrimSpace(rec.Field(job.Target.Field)) != "" {
			plan.Decisions = append(plan.Decisions, Decision{Record: rec, Reason: ReasonHasAudio})
			plan.HasAudio++
			continue
		}

		plan.Decisions = append(plan.Decisions, Decision{Record: rec, Admit: true})
		plan.Admitted++
	}

	return plan
}
