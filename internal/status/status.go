// Package status decides a task's lifecycle status from its own fields, its
// dependees and its children, and propagates decisions up the task tree.
package status

import (
	"strings"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

// Reason explains which rule produced a Decision.
type Reason string

const (
	ReasonTaskNotFound         Reason = "TASK_NOT_FOUND"
	ReasonWaitingDependees     Reason = "WAITING_DEPENDEES"
	ReasonChildHasDraft        Reason = "CHILD_HAS_DRAFT"
	ReasonChildInProgress      Reason = "CHILD_IN_PROGRESS"
	ReasonAllChildrenCompleted Reason = "ALL_CHILDREN_COMPLETED"
	ReasonChildHasPending      Reason = "CHILD_HAS_PENDING"
	ReasonMissingFields        Reason = "MISSING_REQUIRED_FIELDS"
	ReasonFallback             Reason = "FALLBACK"
	ReasonForced               Reason = "FORCED"
	ReasonCycleDetected        Reason = "CYCLE_DETECTED"
)

// Decision is the outcome of evaluating a task.
type Decision struct {
	Status model.Status `json:"status"`
	Reason Reason       `json:"reason_code"`
}

// Snapshot is everything the rules look at for one task.
type Snapshot struct {
	Task *model.Task // nil when the task does not exist

	// Statuses of the dependees that resolved to a task. Dangling edges are
	// not included.
	Dependees []model.Status

	// Statuses of the direct children.
	Children []model.Status

	Conditions  int // number of completion conditions
	Assignments int // number of artifact assignments, any role
}

// Evaluate applies the status rules in order. requested is empty when the
// caller did not ask for a particular status.
func Evaluate(s Snapshot, requested model.Status) Decision {
	if s.Task == nil {
		return Decision{Status: or(requested, model.StatusDraft), Reason: ReasonTaskNotFound}
	}

	for _, st := range s.Dependees {
		if st != model.StatusCompleted {
			return Decision{Status: model.StatusPending, Reason: ReasonWaitingDependees}
		}
	}

	if len(s.Children) > 0 {
		var draft, inProgress, pending, completed int
		for _, st := range s.Children {
			switch st {
			case model.StatusDraft:
				draft++
			case model.StatusInProgress:
				inProgress++
			case model.StatusPending:
				pending++
			case model.StatusCompleted:
				completed++
			}
		}
		switch {
		case draft > 0:
			return Decision{Status: model.StatusDraft, Reason: ReasonChildHasDraft}
		case inProgress > 0:
			return Decision{Status: model.StatusInProgress, Reason: ReasonChildInProgress}
		case requested == "" && completed == len(s.Children):
			return Decision{Status: model.StatusCompleted, Reason: ReasonAllChildrenCompleted}
		case pending > 0:
			return Decision{Status: model.StatusPending, Reason: ReasonChildHasPending}
		}
		// Every child completed but a status was requested: no child rule
		// applies and the field check below decides.
	}

	if !hasRequiredFields(s) {
		return Decision{Status: model.StatusDraft, Reason: ReasonMissingFields}
	}

	return Decision{Status: or(requested, model.StatusPending), Reason: ReasonFallback}
}

func hasRequiredFields(s Snapshot) bool {
	t := s.Task
	for _, f := range []string{t.Title, t.Description, t.Details, t.Estimate} {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return s.Conditions > 0 && s.Assignments > 0
}

func or(s, fallback model.Status) model.Status {
	if s != "" {
		return s
	}
	return fallback
}
