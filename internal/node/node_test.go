package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBranch_Labels(t *testing.T) {
	b := &Branch{Routes: map[string]string{"proceed": "analyze", "empty": "supervise", "skip": "supervise"}}

	assert.Equal(t, []string{"empty", "proceed", "skip"}, b.Labels())
}

func TestNew_CopiesWrites(t *testing.T) {
	writes := []string{"a"}
	n := New("x", nil, writes...)
	writes[0] = "b"

	assert.Equal(t, []string{"a"}, n.Writes)
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusSkipped.Terminal())
	assert.Equal(t, "skipped", StatusSkipped.String())
}
