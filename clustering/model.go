package clustering

import (
	"errors"
	"fmt"
	"strings"

	"vexere-pipeline/models"
)

// K is the number of clusters. The explanation table is written for exactly
// this many groups.
const K = 3

// MinDistinctRows is the smallest number of distinct feature vectors Fit
// accepts.
const MinDistinctRows = K + 1

// ErrInsufficientTrainingData is returned by Fit when too few usable rows
// remain after cleaning.
var ErrInsufficientTrainingData = errors.New("insufficient training data")

// FitOptions control the k-means search.
type FitOptions struct {
	Seed    int64
	NInit   int
	MaxIter int
	Tol     float64
}

// DefaultFitOptions returns the reference configuration: seed 40, ten
// initialisations.
func DefaultFitOptions() FitOptions {
	return FitOptions{Seed: 40, NInit: 10, MaxIter: 300, Tol: 1e-4}
}

// Assignment pairs a source row index with its cluster id.
type Assignment struct {
	Index   int
	Cluster int
}

// UnscorableRow is a row that could not be assigned a cluster.
type UnscorableRow struct {
	Index  int
	Reason string
}

// PredictResult is the outcome of scoring a batch.
type PredictResult struct {
	Assignments []Assignment
	Unscorable  []UnscorableRow
}

// FitStats describes how the training set was reduced before fitting.
type FitStats struct {
	InputRows    int
	MissingRows  int
	DuplicateRow int
	DistinctRows int
	Iterations   int
}

// Model is a fitted scaler plus frozen centroids. Nothing mutates it after
// Fit returns, so concurrent Predict calls are safe.
type Model struct {
	features  []string
	scaler    *RobustScaler
	centroids [][]float64
	inertia   float64

	// scaled distinct training vectors, kept for projection.
	trainX      [][]float64
	trainLabels []Assignment
	stats       FitStats
}

// Fit scales the training rows and clusters them into K groups.
func Fit(rows []models.EnrichedRecord, features []string, opts FitOptions) (*Model, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("clustering: fit: no features given")
	}
	if opts.NInit < 1 {
		opts.NInit = 1
	}
	if opts.MaxIter < 1 {
		opts.MaxIter = DefaultFitOptions().MaxIter
	}

	stats := FitStats{InputRows: len(rows)}
	seen := make(map[string]struct{}, len(rows))
	var distinct [][]float64
	type validRow struct {
		index int
		vec   []float64
	}
	valid := make([]validRow, 0, len(rows))

	for _, r := range rows {
		vec, _, ok := FeatureVector(r, features)
		if !ok {
			stats.MissingRows++
			continue
		}
		valid = append(valid, validRow{index: r.Index, vec: vec})
		key := vectorKey(vec)
		if _, dup := seen[key]; dup {
			stats.DuplicateRow++
			continue
		}
		seen[key] = struct{}{}
		distinct = append(distinct, vec)
	}
	stats.DistinctRows = len(distinct)

	if len(distinct) < MinDistinctRows {
		return nil, fmt.Errorf("clustering: fit: %w: %d distinct rows after cleaning, need at least %d",
			ErrInsufficientTrainingData, len(distinct), MinDistinctRows)
	}

	scaler := FitRobustScaler(distinct)
	X := make([][]float64, len(distinct))
	for i, v := range distinct {
		X[i] = scaler.Transform(v)
	}

	res := kmeans(X, kmeansConfig{
		k:       K,
		nInit:   opts.NInit,
		maxIter: opts.MaxIter,
		tol:     opts.Tol,
		seed:    opts.Seed,
	})
	stats.Iterations = res.iterations

	m := &Model{
		features:  append([]string(nil), features...),
		scaler:    scaler,
		centroids: res.centroids,
		inertia:   res.inertia,
		trainX:    X,
		stats:     stats,
	}

	// Duplicates get the cluster of the vector they duplicate.
	m.trainLabels = make([]Assignment, len(valid))
	for i, v := range valid {
		c, _ := nearest(scaler.Transform(v.vec), m.centroids)
		m.trainLabels[i] = Assignment{Index: v.index, Cluster: c}
	}
	return m, nil
}

// Predict assigns each row to its nearest frozen centroid. Rows with a
// missing feature are reported as unscorable rather than failing the batch.
func (m *Model) Predict(rows []models.EnrichedRecord) PredictResult {
	var res PredictResult
	for _, r := range rows {
		vec, missing, ok := FeatureVector(r, m.features)
		if !ok {
			res.Unscorable = append(res.Unscorable, UnscorableRow{
				Index:  r.Index,
				Reason: "missing feature " + missing,
			})
			continue
		}
		c, _ := nearest(m.scaler.Transform(vec), m.centroids)
		res.Assignments = append(res.Assignments, Assignment{Index: r.Index, Cluster: c})
	}
	return res
}

// Features returns the feature names the model was fitted on.
func (m *Model) Features() []string { return append([]string(nil), m.features...) }

// Scaler returns the frozen scaler.
func (m *Model) Scaler() *RobustScaler { return m.scaler }

// Centroids returns a copy of the centroids in scaled space.
func (m *Model) Centroids() [][]float64 {
	out := make([][]float64, len(m.centroids))
	for i, c := range m.centroids {
		out[i] = clone(c)
	}
	return out
}

// CentroidsInFeatureUnits returns the centroids mapped back through the scaler.
func (m *Model) CentroidsInFeatureUnits() [][]float64 {
	out := make([][]float64, len(m.centroids))
	for i, c := range m.centroids {
		out[i] = m.scaler.InverseTransform(c)
	}
	return out
}

// Inertia is the sum of squared distances of distinct training vectors to
// their centroids.
func (m *Model) Inertia() float64 { return m.inertia }

// TrainingAssignments returns the cluster of every usable training row.
func (m *Model) TrainingAssignments() []Assignment {
	return append([]Assignment(nil), m.trainLabels...)
}

// ClusterSizes counts training rows per cluster.
func (m *Model) ClusterSizes() [K]int {
	var sizes [K]int
	for _, a := range m.trainLabels {
		sizes[a.Cluster]++
	}
	return sizes
}

// Stats reports how the training input was reduced.
func (m *Model) Stats() FitStats { return m.stats }

func vectorKey(v []float64) string {
	var b strings.Builder
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%v", x)
	}
	return b.String()
}
