package scanstats_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/irisprotocol/iris3pc/pkg/scanstats"
)

func TestSummarize(t *testing.T) {
	s, err := scanstats.Summarize([]int{10, 20, 30})
	require.NoError(t, err)
	require.InDelta(t, 20.0, s.Mean, 1e-9)
	require.InDelta(t, 10.0, s.Min, 1e-9)
	require.InDelta(t, 30.0, s.Max, 1e-9)
	require.Greater(t, s.StdDev, 0.0)
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := scanstats.Summarize(nil)
	require.Error(t, err)
}
