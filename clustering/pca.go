package clustering

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"vexere-pipeline/models"
)

// Projection is the 2D principal component view of the scaled training set.
type Projection struct {
	// Points holds one (pc1, pc2) pair per distinct training vector.
	Points [][2]float64
	// Labels is the cluster of each point.
	Labels []int
	// ExplainedVariance is the share of total variance carried by each axis.
	ExplainedVariance [2]float64

	features []string
	scaler   *RobustScaler
	means    []float64
	axes     [][]float64
}

// Project2D projects the scaled distinct training vectors onto their first
// two principal components.
func (m *Model) Project2D() (*Projection, error) {
	n := len(m.trainX)
	if n < 2 {
		return nil, fmt.Errorf("clustering: project: need at least 2 rows, have %d", n)
	}
	d := len(m.trainX[0])

	data := mat.NewDense(n, d, nil)
	for i, row := range m.trainX {
		data.SetRow(i, row)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return nil, fmt.Errorf("clustering: project: principal component analysis failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	_, cols := vecs.Dims()
	axes := 2
	if cols < axes {
		axes = cols
	}

	means := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, data)
		means[j] = stat.Mean(col, nil)
	}
	centered := mat.NewDense(n, d, nil)
	centered.Apply(func(_, j int, v float64) float64 { return v - means[j] }, data)

	var proj mat.Dense
	proj.Mul(centered, vecs.Slice(0, d, 0, axes))

	p := &Projection{
		Points:   make([][2]float64, n),
		Labels:   make([]int, n),
		features: m.features,
		scaler:   m.scaler,
		means:    means,
		axes:     make([][]float64, axes),
	}
	for a := 0; a < axes; a++ {
		p.axes[a] = make([]float64, d)
		mat.Col(p.axes[a], a, &vecs)
	}
	for i := 0; i < n; i++ {
		for a := 0; a < axes; a++ {
			p.Points[i][a] = proj.At(i, a)
		}
		p.Labels[i], _ = nearest(m.trainX[i], m.centroids)
	}
	if total := floats.Sum(vars); total > 0 {
		for a := 0; a < axes; a++ {
			p.ExplainedVariance[a] = vars[a] / total
		}
	}
	return p, nil
}

// Point projects one row onto the same axes. ok is false when the row lacks
// a model feature.
func (p *Projection) Point(r models.EnrichedRecord) (pt [2]float64, ok bool) {
	vec, _, ok := FeatureVector(r, p.features)
	if !ok {
		return pt, false
	}
	x := p.scaler.Transform(vec)
	for j := range x {
		x[j] -= p.means[j]
	}
	for a, axis := range p.axes {
		pt[a] = floats.Dot(x, axis)
	}
	return pt, true
}
