package commands

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"vexere-pipeline/config"
	"vexere-pipeline/pipeline"
	"vexere-pipeline/scraper/vexere"
	"vexere-pipeline/storage"
)

var (
	routesFile string
	noStore    bool
)

func init() {
	for _, c := range []*cobra.Command{crawlCmd, scheduleCmd} {
		c.Flags().StringVar(&routesFile, "routes", "", "Routes file (defaults to DATA_ROUTES_FILE).")
		c.Flags().BoolVar(&noStore, "no-store", false, "Only write CSV files, skip loading into the database.")
	}
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Runs the pipeline once: crawl, clean, save CSVs and load the database.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, closeStore, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		report, err := p.Run(cmd.Context())
		if report != nil {
			printRunReport(report)
		}
		return err
	},
}

// newPipeline builds a pipeline from the loaded config and flags. The
// returned func closes the store, if one was opened.
func newPipeline(cmd *cobra.Command) (*pipeline.Pipeline, func(), error) {
	path := routesFile
	if path == "" {
		path = cfg.Data.RoutesFile
	}
	routes, err := config.LoadRoutes(path)
	if err != nil {
		return nil, nil, err
	}

	var store storage.TripWriter
	closeStore := func() {}
	if !noStore {
		s, err := openStore(cmd.Context())
		if err != nil {
			return nil, nil, err
		}
		store = s
		closeStore = func() { _ = s.Close() }
	}

	crawler := vexere.New(cfg.Crawl, logger)
	return pipeline.New(cfg.Data, routes, crawler, store, logger), closeStore, nil
}

func printRunReport(r *pipeline.RunReport) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Run " + r.RunID)
	t.AppendRows([]table.Row{
		{"Raw trips", r.RawTrips},
		{"Cleaned trips", r.Clean.Output},
		{"Dropped", r.Clean.Total()},
		{"Stored", r.Stored.Inserted},
		{"Store failures", r.Stored.Failed},
		{"Raw CSV", r.RawPath},
		{"Cleaned CSV", r.CleanedPath},
	})
	if r.CrawlErr != nil {
		t.AppendRow(table.Row{"Crawl errors", r.CrawlErr.Error()})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
