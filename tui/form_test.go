package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vexere-pipeline/clustering"
	"vexere-pipeline/models"
	"vexere-pipeline/utils"
)

type fixedScorer struct {
	cluster int
	got     []models.EnrichedRecord
}

func (s *fixedScorer) Predict(rows []models.EnrichedRecord) clustering.PredictResult {
	s.got = rows
	return clustering.PredictResult{Assignments: []clustering.Assignment{{Index: 0, Cluster: s.cluster}}}
}

func filledModel(scorer Scorer, values ...string) Model {
	m := New(scorer, utils.NewNopLogger())
	for i, v := range values {
		m.inputs[i].SetValue(v)
	}
	return m
}

var validInput = []string{"400.000", "350.000", "4.6", "4.7", "4.8", "4.6", "4.7", "4.5", "4.5", "500"}

func TestSubmitScoresTrip(t *testing.T) {
	scorer := &fixedScorer{cluster: 2}
	m := filledModel(scorer, validInput...)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)

	require.NoError(t, m.err)
	require.NotNil(t, m.result)
	assert.Equal(t, 2, m.result.cluster)
	assert.Equal(t, clustering.Explain(2), m.result.meaning)

	require.Len(t, scorer.got, 1)
	e := scorer.got[0]
	assert.Equal(t, int64(400000), e.PriceOriginal)
	assert.Equal(t, int64(350000), e.PriceDiscounted)
	assert.Equal(t, 350000.0, e.RealPrice)
	assert.Equal(t, 500, e.ReviewerCount)

	assert.Contains(t, m.View(), clustering.Explain(2).Name)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	cases := map[string][]string{
		"missing price":    {"", "", "4.6", "4.7", "4.8", "4.6", "4.7", "4.5", "4.5", "500"},
		"rating too high":  {"400.000", "", "5.6", "4.7", "4.8", "4.6", "4.7", "4.5", "4.5", "500"},
		"rating not float": {"400.000", "", "good", "4.7", "4.8", "4.6", "4.7", "4.5", "4.5", "500"},
		"reviews not int":  {"400.000", "", "4.6", "4.7", "4.8", "4.6", "4.7", "4.5", "4.5", "many"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			scorer := &fixedScorer{}
			m := filledModel(scorer, values...).submit()
			assert.Error(t, m.err)
			assert.Nil(t, m.result)
			assert.Nil(t, scorer.got, "invalid input must not reach the model")
		})
	}
}

func TestFocusNavigation(t *testing.T) {
	m := New(&fixedScorer{}, utils.NewNopLogger())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.Equal(t, 1, m.focus)
	assert.True(t, m.inputs[1].Focused())
	assert.False(t, m.inputs[0].Focused())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m = next.(Model)
	assert.Equal(t, len(fields)-1, m.focus, "focus wraps around")
}

func TestEnterOnLastFieldSubmits(t *testing.T) {
	scorer := &fixedScorer{cluster: 1}
	m := filledModel(scorer, validInput...)
	m = m.moveFocus(-1)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, m.result)
	assert.Equal(t, 1, m.result.cluster)
}
