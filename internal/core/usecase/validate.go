package usecase

import (
	"fmt"
	"strings"

	"moderation-console/internal/core/domain"
)

// validateDecision проверяет параметры действия до отправки запросов.
// Для отклонения и возврата на доработку причина обязательна.
func validateDecision(action domain.ModerationAction, decision domain.Decision) (domain.Decision, error) {
	switch action {
	case domain.ActionApprove:
		return domain.Decision{}, nil
	case domain.ActionReject, domain.ActionRequestChanges:
		decision.Reason = strings.TrimSpace(decision.Reason)
		decision.Comment = strings.TrimSpace(decision.Comment)
		if decision.Reason == "" {
			return decision, domain.ErrEmptyReason
		}
		return decision, nil
	default:
		return decision, fmt.Errorf("unknown moderation action %q", action)
	}
}
