package bush

import (
	"testing"

	"sueassign/internal/network"

	"github.com/stretchr/testify/assert"
)

func TestShortestPath_MatchesFreeFlowAfterBuild(t *testing.T) {
	n := chainNetwork()
	b, err := Build(n, 0)
	assert.NoError(t, err)

	label := b.ShortestPath(n)
	assert.InDelta(t, 0, label[0], network.Epsilon)
	assert.InDelta(t, 1, label[2], network.Epsilon)
	assert.InDelta(t, 2, label[1], network.Epsilon)
}

func TestShortestPath_UpdatesAfterCostChange(t *testing.T) {
	n := chainNetwork()
	b, err := Build(n, 0)
	assert.NoError(t, err)

	n.Arcs[0].Alpha = 0.15
	n.Arcs[0].Flow = 50
	n.UpdateLinkCosts()

	label := b.ShortestPath(n)
	assert.Greater(t, label[2], 1.0)
}
