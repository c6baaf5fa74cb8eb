package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moderation-console/internal/core/domain"
)

func TestBulkApproveNothingEligible(t *testing.T) {
	api := newFakeAPI()
	events := &fakeEvents{}
	uc := NewBulkModerationUseCase(api, events, 2)

	known := map[int]domain.Status{1: domain.StatusApproved, 2: domain.StatusApproved}
	res, err := uc.Approve(context.Background(), []int{1, 2}, known)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeNothingEligible, res.Outcome())
	assert.Equal(t, []int{1, 2}, res.Skipped)
	assert.Empty(t, api.calledIDs(), "no requests must be issued")
	assert.Empty(t, events.events)
}

func TestBulkRejectSkipsAlreadyRejected(t *testing.T) {
	api := newFakeAPI()
	uc := NewBulkModerationUseCase(api, nil, 0)

	// 3 выбран на другой странице, его статус неизвестен
	known := map[int]domain.Status{1: domain.StatusPending, 2: domain.StatusRejected}
	res, err := uc.Reject(context.Background(), []int{1, 2, 3}, known, domain.ReasonProhibitedItem, "")
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, res.Eligible)
	assert.Equal(t, []int{2}, res.Skipped)
	assert.Equal(t, []int{1, 3}, res.Succeeded)
	assert.Equal(t, domain.OutcomeSucceeded, res.Outcome())

	require.Len(t, api.calls, 2)
	for _, c := range api.calls {
		assert.Equal(t, domain.ActionReject, c.Action)
		assert.Equal(t, domain.Decision{Reason: "Запрещенный товар"}, c.Decision)
	}
}

func TestBulkPartialFailureDoesNotAbort(t *testing.T) {
	api := newFakeAPI()
	api.failIDs[2] = true
	events := &fakeEvents{}
	uc := NewBulkModerationUseCase(api, events, 1)

	res, err := uc.Approve(context.Background(), []int{1, 2, 3}, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, api.calledIDs())
	assert.Equal(t, []int{1, 3}, res.Succeeded)
	assert.Equal(t, []int{2}, res.FailedIDs())
	assert.Equal(t, domain.OutcomePartiallyFailed, res.Outcome())

	require.Len(t, events.events, 1)
	ev := events.events[0]
	if diff := cmp.Diff([]int{2}, ev.Failed); diff != "" {
		t.Errorf("failed ids mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, domain.ActionApprove, ev.Action)
}

func TestBulkAllFailed(t *testing.T) {
	api := newFakeAPI()
	api.failIDs[4] = true
	uc := NewBulkModerationUseCase(api, &fakeEvents{err: errors.New("broker down")}, 4)

	res, err := uc.Approve(context.Background(), []int{4}, nil)
	require.NoError(t, err, "publishing errors are logged, not returned")
	assert.Equal(t, domain.OutcomeFailed, res.Outcome())
}

func TestBulkRequestChangesTargetsDraft(t *testing.T) {
	api := newFakeAPI()
	uc := NewBulkModerationUseCase(api, nil, 4)

	known := map[int]domain.Status{1: domain.StatusDraft, 2: domain.StatusRejected}
	res, err := uc.RequestChanges(context.Background(), []int{1, 2}, known, domain.ReasonOther, " фото размыто ")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, res.Eligible)
	assert.Equal(t, []int{1}, res.Skipped)
	assert.Equal(t, "фото размыто", api.calls[0].Decision.Comment)
}

func TestBulkRejectRequiresReason(t *testing.T) {
	api := newFakeAPI()
	uc := NewBulkModerationUseCase(api, nil, 4)

	_, err := uc.Reject(context.Background(), []int{1}, nil, "  ", "")
	assert.ErrorIs(t, err, domain.ErrEmptyReason)
	assert.Empty(t, api.calledIDs())
}

func TestBulkDeduplicatesIDs(t *testing.T) {
	api := newFakeAPI()
	uc := NewBulkModerationUseCase(api, nil, 4)

	res, err := uc.Approve(context.Background(), []int{5, 5, 6}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, res.Eligible)
	assert.Equal(t, []int{5, 6}, api.calledIDs())
}
