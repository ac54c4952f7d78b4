package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivityTargetUserIDs(t *testing.T) {
	assignee := int64(10)
	owner := int64(20)

	t.Run("union preserves order and deduplicates", func(t *testing.T) {
		a := Activity{
			AssigneeID:      &assignee,
			PlanOwnerID:     &owner,
			CollaboratorIDs: []int64{30, 10, 20, 40},
		}
		assert.Equal(t, []int64{10, 20, 30, 40}, a.TargetUserIDs())
	})

	t.Run("assignee doubling as plan owner appears once", func(t *testing.T) {
		a := Activity{AssigneeID: &assignee, PlanOwnerID: &assignee}
		assert.Equal(t, []int64{10}, a.TargetUserIDs())
	})

	t.Run("nil and zero entries are filtered", func(t *testing.T) {
		a := Activity{CollaboratorIDs: []int64{0, 30}}
		assert.Equal(t, []int64{30}, a.TargetUserIDs())
	})

	t.Run("no targets yields empty", func(t *testing.T) {
		assert.Empty(t, Activity{}.TargetUserIDs())
	})
}
