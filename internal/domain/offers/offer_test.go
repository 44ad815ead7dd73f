package offers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() Draft {
	return Draft{
		Name:        "Setup",
		Description: "Initial environment setup",
		Timeline:    TimelineOneWeek,
		Budget:      500,
	}
}

func TestDraftValidateAccepts(t *testing.T) {
	require.NoError(t, validDraft().Validate())

	minimal := validDraft()
	minimal.Budget = 1
	require.NoError(t, minimal.Validate())
}

func TestDraftValidateBudget(t *testing.T) {
	draft := validDraft()
	draft.Budget = 0
	err := draft.Validate()
	require.Error(t, err)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Len(t, validation.Fields, 1)
	assert.Equal(t, "budget", validation.Fields[0].Field)
}

func TestDraftValidateCollectsAllFields(t *testing.T) {
	draft := Draft{Name: "x", Description: "too short", Timeline: "someday", Budget: -3}
	err := draft.Validate()
	require.Error(t, err)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	fields := make([]string, 0, len(validation.Fields))
	for _, f := range validation.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "description", "timeline", "budget"}, fields)
}

func TestTimelineValid(t *testing.T) {
	for _, timeline := range Timelines() {
		assert.True(t, timeline.Valid(), string(timeline))
	}
	assert.False(t, Timeline("2hours").Valid())
	assert.False(t, Timeline("").Valid())
}
