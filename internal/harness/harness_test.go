package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/artemis/kontent-migrate/internal/kerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessItemsPreservesOrderAndClassifies(t *testing.T) {
	items := []int{1, 2, 3, 4}

	results, err := ProcessItems(context.Background(), items,
		Options{ParallelLimit: 2, Stage: "test"},
		func(i int) string { return "item" },
		func(ctx context.Context, i int) (int, error) {
			if i == 2 {
				return 0, kerrors.Lookup("test", "item", kerrors.ErrNotFound)
			}
			if i == 3 {
				return 0, errors.New("boom")
			}
			return i * 10, nil
		},
	)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, OutcomeValid, results[0].Outcome)
	assert.Equal(t, 10, results[0].Output)
	assert.Equal(t, OutcomeNotFound, results[1].Outcome)
	assert.Equal(t, OutcomeError, results[2].Outcome)
	assert.Equal(t, OutcomeValid, results[3].Outcome)
	assert.Equal(t, 40, results[3].Output)
}

func TestProcessItemsEmptyInput(t *testing.T) {
	results, err := ProcessItems(context.Background(), []int{},
		Options{ParallelLimit: 2},
		func(i int) string { return "" },
		func(ctx context.Context, i int) (int, error) { return i, nil },
	)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProcessItemsFailOnErrorStopsBatch(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}

	_, err := ProcessItems(context.Background(), items,
		Options{ParallelLimit: 1, FailOnError: true},
		func(i int) string { return "" },
		func(ctx context.Context, i int) (int, error) {
			if i == 2 {
				return 0, errors.New("fatal")
			}
			return i, nil
		},
	)
	require.Error(t, err)
	assert.Equal(t, "fatal", err.Error())
}

func TestProcessItemsDefaultsParallelLimit(t *testing.T) {
	results, err := ProcessItems(context.Background(), []int{1, 2, 3},
		Options{},
		func(i int) string { return "" },
		func(ctx context.Context, i int) (int, error) { return i, nil },
	)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}
