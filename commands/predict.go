package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"vexere-pipeline/clustering"
	"vexere-pipeline/models"
	"vexere-pipeline/services"
)

var (
	predictFlags trainingFlags
	tripInput    struct {
		priceOriginal   string
		priceDiscounted string
		record          models.TripRecord
	}
)

func init() {
	predictFlags.register(predictCmd)
	f := predictCmd.Flags()
	f.StringVar(&tripInput.priceOriginal, "price", "", "Original fare, e.g. 400.000 (required).")
	f.StringVar(&tripInput.priceDiscounted, "discounted", "", "Discounted fare, empty when there is no discount.")
	f.Float64Var(&tripInput.record.RatingOverall, "rating", 0, "Overall rating (0-5).")
	f.Float64Var(&tripInput.record.RatingSafety, "safety", 0, "Safety rating.")
	f.Float64Var(&tripInput.record.RatingPunctuality, "punctuality", 0, "Punctuality rating.")
	f.Float64Var(&tripInput.record.RatingInfoAccuracy, "info-accuracy", 0, "Information accuracy rating.")
	f.Float64Var(&tripInput.record.RatingStaffAttitude, "staff-attitude", 0, "Staff attitude rating.")
	f.Float64Var(&tripInput.record.RatingComfort, "comfort", 0, "Comfort rating.")
	f.Float64Var(&tripInput.record.RatingServiceQuality, "service-quality", 0, "Service quality rating.")
	f.IntVar(&tripInput.record.ReviewerCount, "reviewers", 0, "Number of reviews.")
	f.IntVar(&tripInput.record.DurationMinutes, "duration", 0, "Trip duration in minutes.")
	f.IntVar(&tripInput.record.NumberOfSeat, "seats", 0, "Number of seats.")
	_ = predictCmd.MarkFlagRequired("price")
	rootCmd.AddCommand(predictCmd)
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Fits the clustering and places one trip in it.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := tripInput.record
		var err error
		if r.PriceOriginal, err = services.ParsePrice(tripInput.priceOriginal); err != nil {
			return fmt.Errorf("--price: %w", err)
		}
		if tripInput.priceDiscounted != "" {
			if r.PriceDiscounted, err = services.ParsePrice(tripInput.priceDiscounted); err != nil {
				return fmt.Errorf("--discounted: %w", err)
			}
		}
		if err := r.Validate(); err != nil {
			return err
		}

		m, _, err := predictFlags.fitModel(cmd)
		if err != nil {
			return err
		}
		e := clustering.EnrichOne(0, r)
		res := m.Predict([]models.EnrichedRecord{e})
		if len(res.Unscorable) > 0 {
			return fmt.Errorf("trip cannot be scored: %s", res.Unscorable[0].Reason)
		}
		printPrediction(e, res.Assignments[0].Cluster)
		return nil
	},
}

func printPrediction(e models.EnrichedRecord, cluster int) {
	meaning := clustering.Explain(cluster)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Cluster %d: %s", cluster, meaning.Name))
	t.AppendHeader(table.Row{"Feature", "Value"})
	t.AppendRows([]table.Row{
		{models.FeatureRealPrice, services.FormatPrice(int64(e.RealPrice))},
		{models.FeatureDiscountRate, fmt.Sprintf("%.1f%%", e.DiscountRate*100)},
		{models.FeatureLogPrice, fmt.Sprintf("%.4f", e.LogPrice)},
		{models.FeatureWilsonScore, fmt.Sprintf("%.4f", e.WilsonScore)},
		{models.FeatureTrustScore, fmt.Sprintf("%.3f", e.TrustScore)},
		{models.FeatureServiceScore, fmt.Sprintf("%.3f", e.ServiceScore)},
		{models.FeatureFairnessIndex, fmt.Sprintf("%.3e", e.FairnessIndex)},
	})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.SetStyle(table.StyleRounded)
	t.Render()
	fmt.Println(meaning.Description)
}
