package domain

import (
	"errors"
	"time"
)

var (
	ErrAdNotFound     = errors.New("ad not found")
	ErrPresetNotFound = errors.New("preset not found")
	ErrSessionClosed  = errors.New("session closed")
	ErrEmptyReason    = errors.New("rejection reason is required")
)

// ModerationAction - действие модератора над объявлением.
type ModerationAction string

const (
	ActionApprove        ModerationAction = "approve"
	ActionReject         ModerationAction = "reject"
	ActionRequestChanges ModerationAction = "request-changes"
)

// TargetStatus - статус, в который переводит объявление действие.
func (a ModerationAction) TargetStatus() Status {
	switch a {
	case ActionApprove:
		return StatusApproved
	case ActionReject:
		return StatusRejected
	case ActionRequestChanges:
		return StatusDraft
	}
	return ""
}

// Decision - параметры отклонения или возврата на доработку.
type Decision struct {
	Reason  string
	Comment string
}

// BulkOutcome - итог массовой операции.
type BulkOutcome string

const (
	OutcomeNothingEligible BulkOutcome = "nothing_eligible"
	OutcomeSucceeded       BulkOutcome = "succeeded"
	OutcomePartiallyFailed BulkOutcome = "partially_failed"
	OutcomeFailed          BulkOutcome = "failed"
)

// BulkFailure - ошибка по одному объявлению.
type BulkFailure struct {
	ID  int
	Err error
}

// BulkResult - сводка массовой операции над выбранными объявлениями.
type BulkResult struct {
	Action    ModerationAction
	Eligible  []int
	Skipped   []int
	Succeeded []int
	Failed    []BulkFailure
}

func (r BulkResult) Outcome() BulkOutcome {
	switch {
	case len(r.Eligible) == 0:
		return OutcomeNothingEligible
	case len(r.Failed) == 0:
		return OutcomeSucceeded
	case len(r.Succeeded) == 0:
		return OutcomeFailed
	default:
		return OutcomePartiallyFailed
	}
}

// FailedIDs возвращает идентификаторы объявлений, запрос по которым не прошел.
func (r BulkResult) FailedIDs() []int {
	ids := make([]int, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = f.ID
	}
	return ids
}

// ModerationEvent - событие аудита, которое публикуется после действия модератора.
type ModerationEvent struct {
	Action     ModerationAction
	Succeeded  []int
	Failed     []int
	Skipped    []int
	Reason     string
	Comment    string
	OccurredAt time.Time
}

// EventFromBulk собирает событие аудита из результата массовой операции.
func EventFromBulk(r BulkResult, d Decision, at time.Time) ModerationEvent {
	return ModerationEvent{
		Action:     r.Action,
		Succeeded:  r.Succeeded,
		Failed:     r.FailedIDs(),
		Skipped:    r.Skipped,
		Reason:     d.Reason,
		Comment:    d.Comment,
		OccurredAt: at,
	}
}
