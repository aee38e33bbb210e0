package ndarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resolveAndFinish reads a selection the way storage does: the bounding box
// first, then steps and dropped dimensions.
func resolveAndFinish(a *Array, sel Selection) (*Array, error) {
	box, err := sel.Resolve(a.Shape())
	if err != nil {
		return nil, err
	}
	region, err := a.Region(box.Start, box.Bounds())
	if err != nil {
		return nil, err
	}
	return box.Finish(region)
}

func TestSelection(t *testing.T) {
	a := MustNew([]int64{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
	}, 3, 4)

	var testCases = []struct {
		description string
		selection   Selection
		shape       []int
		expect      []int64
		hasError    bool
	}{
		{description: "all", selection: nil, shape: []int{3, 4}, expect: []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
		{description: "rows", selection: Selection{Span(1, 3)}, shape: []int{2, 4}, expect: []int64{4, 5, 6, 7, 8, 9, 10, 11}},
		{description: "negative", selection: Selection{Span(-1, End), Span(-2, End)}, shape: []int{1, 2}, expect: []int64{10, 11}},
		{description: "step", selection: Selection{All(), {Start: 0, Stop: End, Step: 2}}, shape: []int{3, 2}, expect: []int64{0, 2, 4, 6, 8, 10}},
		{description: "index drops", selection: Selection{Index(1)}, shape: []int{4}, expect: []int64{4, 5, 6, 7}},
		{description: "scalar", selection: Selection{Index(2), Index(-1)}, shape: nil, expect: []int64{11}},
		{description: "empty", selection: Selection{Span(2, 1)}, shape: []int{0, 4}, expect: []int64{}},
		{description: "index out of range", selection: Selection{Index(3)}, hasError: true},
		{description: "too many ranges", selection: Selection{All(), All(), All()}, hasError: true},
		{description: "negative step", selection: Selection{{Start: 0, Stop: 2, Step: -1}}, hasError: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			actual, err := resolveAndFinish(a, testCase.selection)
			if testCase.hasError {
				assert.ErrorIs(t, err, ErrSelection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.shape, actual.Shape())
			values, err := Values[int64](actual)
			require.NoError(t, err)
			assert.Equal(t, testCase.expect, values)
		})
	}
}
