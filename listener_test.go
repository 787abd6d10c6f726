package taskreactor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tr "github.com/joeycumines/go-taskreactor"
)

type stubListener struct {
	tr.NoopListener
	startedErr error
	calls      *[]string
	name       string
}

func (s stubListener) OnTaskStarted(tr.Task) error {
	if s.calls != nil {
		*s.calls = append(*s.calls, s.name)
	}
	return s.startedErr
}

func TestNoopListener_allMethodsReturnNil(t *testing.T) {
	var l tr.NoopListener
	assert.NoError(t, l.OnTaskStarted(nil))
	assert.NoError(t, l.OnTaskCompleted(nil))
	assert.NoError(t, l.OnTaskFailed(nil, errors.New("x"), true))
	assert.NoError(t, l.OnAttained("m"))
}

func TestAggregator_runsEverySubListener(t *testing.T) {
	var calls []string
	agg := tr.NewAggregator(
		stubListener{calls: &calls, name: "a"},
		stubListener{calls: &calls, name: "b"},
		stubListener{calls: &calls, name: "c"},
	)

	require.NoError(t, agg.OnTaskStarted(nil))
	assert.Equal(t, []string{"a", "b", "c"}, calls)
}

func TestAggregator_firstErrorPrimaryRestSuppressed(t *testing.T) {
	e1 := errors.New("e1")
	e2 := errors.New("e2")
	e3 := errors.New("e3")

	agg := tr.NewAggregator(
		stubListener{name: "a"},
		stubListener{name: "b", startedErr: e1},
		stubListener{name: "c", startedErr: e2},
		stubListener{name: "d", startedErr: e3},
	)

	err := agg.OnTaskStarted(nil)
	require.Error(t, err)
	assert.Equal(t, "e1; suppressed: e2; suppressed: e3", err.Error())
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
	assert.ErrorIs(t, err, e3)
}

func TestAggregator_emptyNeverErrors(t *testing.T) {
	var agg tr.Aggregator
	assert.NoError(t, agg.OnTaskStarted(nil))
	assert.NoError(t, agg.OnTaskCompleted(nil))
	assert.NoError(t, agg.OnTaskFailed(nil, nil, false))
	assert.NoError(t, agg.OnAttained("m"))
}

func TestAggregator_ignoresNilSubListeners(t *testing.T) {
	agg := tr.NewAggregator(nil, stubListener{})
	assert.NoError(t, agg.OnTaskStarted(nil))
}

func TestNOOP_isUsable(t *testing.T) {
	assert.NoError(t, tr.NOOP.OnTaskStarted(nil))
}
