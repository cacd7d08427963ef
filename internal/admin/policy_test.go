package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyAllows(t *testing.T) {
	policy := NewPolicy([]string{"root", " ops ", ""})

	assert.True(t, policy.Allows("root"))
	assert.True(t, policy.Allows("ops"))
	assert.False(t, policy.Allows("player"))
	assert.False(t, policy.Allows(""))
}

func TestEmptyPolicyAllowsNoOne(t *testing.T) {
	policy := NewPolicy(nil)

	assert.False(t, policy.Allows("root"))
	assert.False(t, policy.Allows(""))
}
