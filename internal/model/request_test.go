package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	statuses := []string{StatusPending, StatusApproved, StatusRejected, StatusDelivered}

	allowed := map[[2]string]bool{
		{StatusPending, StatusApproved}:   true,
		{StatusPending, StatusRejected}:   true,
		{StatusApproved, StatusDelivered}: true,
	}

	// Everything outside the three allowed edges is forbidden, including
	// no-op transitions and anything out of a terminal state.
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]string{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.False(t, CanTransition("SHIPPED", StatusApproved))
	assert.False(t, CanTransition(StatusPending, "SHIPPED"))
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusApproved, StatusRejected, StatusDelivered} {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("pending"))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("SHIPPED"))
}

func TestDateOf(t *testing.T) {
	// 23:45 EAT is 20:45 UTC, still March 14
	in := time.Date(2026, time.March, 14, 23, 45, 12, 500, time.FixedZone("EAT", 3*3600))
	got := DateOf(in)
	assert.Equal(t, time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())

	// two instants on the same UTC day collapse to the same date
	morning := time.Date(2026, time.March, 14, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2026, time.March, 14, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, DateOf(morning), DateOf(evening))
}

func TestMonthStartOf(t *testing.T) {
	in := time.Date(2026, time.February, 28, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), MonthStartOf(in))

	// the first of the month is its own month start
	first := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, first, MonthStartOf(first))
}

func TestValidateSupervision(t *testing.T) {
	supervisor := &Worker{Role: RoleSupervisor}
	worker := &Worker{Role: RoleWorker}
	admin := &Worker{Role: RoleAdmin}

	tests := []struct {
		name       string
		role       string
		supervisor *Worker
		wantErr    bool
	}{
		{"worker with supervisor", RoleWorker, supervisor, false},
		{"worker without supervisor", RoleWorker, nil, true},
		{"worker supervised by worker", RoleWorker, worker, true},
		{"worker supervised by admin", RoleWorker, admin, true},
		{"supervisor unsupervised", RoleSupervisor, nil, false},
		{"supervisor supervised by supervisor", RoleSupervisor, supervisor, false},
		{"supervisor supervised by worker", RoleSupervisor, worker, true},
		{"admin unsupervised", RoleAdmin, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSupervision(tt.role, tt.supervisor)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
