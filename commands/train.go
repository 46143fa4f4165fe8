package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"vexere-pipeline/clustering"
	"vexere-pipeline/models"
	"vexere-pipeline/storage"
)

var (
	trainFlags trainingFlags
	trainOut   string
)

func init() {
	trainFlags.register(trainCmd)
	trainCmd.Flags().StringVar(&trainOut, "out", "", "Write every training row with its cluster and PCA coordinates to this CSV.")
	rootCmd.AddCommand(trainCmd)
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fits the price/quality clustering and prints a summary of each cluster.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, enriched, err := trainFlags.fitModel(cmd)
		if err != nil {
			return err
		}
		proj, err := m.Project2D()
		if err != nil {
			return err
		}

		printClusterSummary(m)
		fmt.Printf("PCA explained variance: pc1 %.1f%%, pc2 %.1f%%\n",
			proj.ExplainedVariance[0]*100, proj.ExplainedVariance[1]*100)

		if trainOut == "" {
			return nil
		}
		if err := writeClustered(trainOut, m, proj, enriched); err != nil {
			return err
		}
		fmt.Printf("Clustered rows written to %s\n", trainOut)
		return nil
	},
}

func printClusterSummary(m *clustering.Model) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Clusters")

	header := table.Row{"Cluster", "Name", "Trips"}
	for _, f := range m.Features() {
		header = append(header, f)
	}
	t.AppendHeader(header)

	sizes := m.ClusterSizes()
	for id, c := range m.CentroidsInFeatureUnits() {
		row := table.Row{id, clustering.Explain(id).Name, sizes[id]}
		for _, v := range c {
			row = append(row, fmt.Sprintf("%.4g", v))
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", "Inertia", fmt.Sprintf("%.3f", m.Inertia())})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func writeClustered(path string, m *clustering.Model, proj *clustering.Projection, enriched []models.EnrichedRecord) error {
	byIndex := make(map[int]models.EnrichedRecord, len(enriched))
	for _, e := range enriched {
		byIndex[e.Index] = e
	}

	var rows []storage.ClusteredRow
	for _, a := range m.TrainingAssignments() {
		e := byIndex[a.Index]
		pt, _ := proj.Point(e)
		rows = append(rows, storage.ClusteredRow{
			Record:      e,
			Cluster:     a.Cluster,
			ClusterName: clustering.Explain(a.Cluster).Name,
			PCA:         pt,
		})
	}

	w, err := storage.NewCSVWriter(path, storage.ClusteredHeader)
	if err != nil {
		return err
	}
	if err := w.WriteClustered(rows); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
