// Package tui is the interactive trip scoring dashboard.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"vexere-pipeline/clustering"
	"vexere-pipeline/models"
	"vexere-pipeline/services"
	"vexere-pipeline/utils"
)

// Scorer places enriched rows into clusters. *clustering.Model satisfies it.
type Scorer interface {
	Predict(rows []models.EnrichedRecord) clustering.PredictResult
}

type field struct {
	label       string
	placeholder string
	// set parses the text into the record
	set func(r *models.TripRecord, s string) error
}

func floatField(label, placeholder string, dst func(*models.TripRecord) *float64) field {
	return field{label: label, placeholder: placeholder, set: func(r *models.TripRecord, s string) error {
		v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil {
			return fmt.Errorf("%s: not a number", strings.ToLower(label))
		}
		*dst(r) = v
		return nil
	}}
}

var fields = []field{
	{label: "Original price", placeholder: "400.000", set: func(r *models.TripRecord, s string) error {
		v, err := services.ParsePrice(s)
		if err != nil {
			return fmt.Errorf("original price: %w", err)
		}
		r.PriceOriginal = v
		return nil
	}},
	{label: "Discounted price", placeholder: "empty if none", set: func(r *models.TripRecord, s string) error {
		if s == "" {
			r.PriceDiscounted = 0
			return nil
		}
		v, err := services.ParsePrice(s)
		if err != nil {
			return fmt.Errorf("discounted price: %w", err)
		}
		r.PriceDiscounted = v
		return nil
	}},
	floatField("Overall rating", "4.5", func(r *models.TripRecord) *float64 { return &r.RatingOverall }),
	floatField("Safety", "4.5", func(r *models.TripRecord) *float64 { return &r.RatingSafety }),
	floatField("Punctuality", "4.5", func(r *models.TripRecord) *float64 { return &r.RatingPunctuality }),
	floatField("Information accuracy", "4.5", func(r *models.TripRecord) *float64 { return &r.RatingInfoAccuracy }),
	floatField("Staff attitude", "4.5", func(r *models.TripRecord) *float64 { return &r.RatingStaffAttitude }),
	floatField("Comfort", "4.5", func(r *models.TripRecord) *float64 { return &r.RatingComfort }),
	floatField("Service quality", "4.5", func(r *models.TripRecord) *float64 { return &r.RatingServiceQuality }),
	{label: "Reviews", placeholder: "120", set: func(r *models.TripRecord, s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("reviews: not a whole number")
		}
		r.ReviewerCount = v
		return nil
	}},
}

type result struct {
	record  models.EnrichedRecord
	cluster int
	meaning clustering.Meaning
}

// Model is the bubbletea model of the scoring form.
type Model struct {
	scorer Scorer
	logger *utils.Logger

	inputs []textinput.Model
	focus  int
	result *result
	err    error
}

func New(scorer Scorer, logger *utils.Logger) Model {
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		ti := textinput.New()
		ti.Placeholder = f.placeholder
		ti.Width = 20
		ti.Prompt = "> "
		inputs[i] = ti
	}
	inputs[0].Focus()
	return Model{scorer: scorer, logger: logger, inputs: inputs}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			return m.moveFocus(1), nil
		case "shift+tab", "up":
			return m.moveFocus(-1), nil
		case "enter":
			if m.focus < len(m.inputs)-1 {
				return m.moveFocus(1), nil
			}
			return m.submit(), nil
		case "ctrl+s":
			return m.submit(), nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) moveFocus(delta int) Model {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
	return m
}

// submit runs the form through validation, enrichment and prediction.
func (m Model) submit() Model {
	m.result, m.err = nil, nil

	rec, err := m.record()
	if err == nil {
		err = rec.Validate()
	}
	if err != nil {
		m.err = err
		m.logger.Warn("[dashboard] Rejected input: %v", err)
		return m
	}

	e := clustering.EnrichOne(0, rec)
	res := m.scorer.Predict([]models.EnrichedRecord{e})
	if len(res.Assignments) == 0 {
		m.err = fmt.Errorf("trip cannot be scored: %s", res.Unscorable[0].Reason)
		m.logger.Warn("[dashboard] %v", m.err)
		return m
	}

	c := res.Assignments[0].Cluster
	m.result = &result{record: e, cluster: c, meaning: clustering.Explain(c)}
	m.logger.Info("[dashboard] Price %d, rating %.2f (%d reviews) → cluster %d",
		rec.PriceOriginal, rec.RatingOverall, rec.ReviewerCount, c)
	return m
}

func (m Model) record() (models.TripRecord, error) {
	var r models.TripRecord
	for i, f := range fields {
		if err := f.set(&r, strings.TrimSpace(m.inputs[i].Value())); err != nil {
			return r, err
		}
	}
	return r, nil
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(Styles.Title.Render("Bus trip price / quality") + "\n\n")

	for i, f := range fields {
		label := Styles.Label
		if i == m.focus {
			label = Styles.Focused
		}
		s.WriteString(label.Render(f.label) + m.inputs[i].View() + "\n")
	}
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(Styles.Error.Render(m.err.Error()) + "\n\n")
	}
	if m.result != nil {
		s.WriteString(renderResult(m.result) + "\n\n")
	}

	s.WriteString(Styles.Help.Render("tab/↓ next • shift+tab/↑ previous • enter on last field or ctrl+s score • esc quit"))
	return s.String()
}

func renderResult(r *result) string {
	e := r.record
	rows := []struct{ name, value string }{
		{"Real price", services.FormatPrice(int64(e.RealPrice))},
		{"Discount", fmt.Sprintf("%.1f%%", e.DiscountRate*100)},
		{"Wilson score", fmt.Sprintf("%.4f", e.WilsonScore)},
		{"Trust score", fmt.Sprintf("%.3f", e.TrustScore)},
		{"Service score", fmt.Sprintf("%.3f", e.ServiceScore)},
		{"Fairness index", fmt.Sprintf("%.3e", e.FairnessIndex)},
	}

	var b strings.Builder
	b.WriteString(Styles.Cluster.Render(fmt.Sprintf("Cluster %d: %s", r.cluster, r.meaning.Name)) + "\n\n")
	for _, row := range rows {
		b.WriteString(Styles.Feature.Render(row.name) + Styles.Value.Render(row.value) + "\n")
	}
	b.WriteString("\n" + r.meaning.Description)
	return Styles.Result.Render(b.String())
}
