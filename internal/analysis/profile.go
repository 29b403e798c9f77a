package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/KaramelBytes/edaloom/internal/dataset"
)

// Options controls the column profile.
type Options struct {
	// TopValues caps the most frequent values listed per categorical column.
	TopValues int
	// Outliers counts values with robust |z| above OutlierThreshold (MAD based).
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for profiling.
func DefaultOptions() Options {
	return Options{TopValues: 8, Outliers: true, OutlierThreshold: 3.5}
}

// ColumnProfile captures statistics per column.
type ColumnProfile struct {
	Name    string             `json:"name"`
	Type    dataset.ColumnType `json:"type"`
	NonNull int                `json:"non_null"`
	Missing int                `json:"missing"`
	Unique  int                `json:"unique,omitempty"`
	// Numeric stats
	Min  float64 `json:"min,omitempty"`
	Max  float64 `json:"max,omitempty"`
	Mean float64 `json:"mean,omitempty"`
	Std  float64 `json:"std,omitempty"`
	// Outliers
	OutliersCount    int     `json:"outliers_count,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
	// Datetime range
	Earliest string `json:"earliest,omitempty"`
	Latest   string `json:"latest,omitempty"`
	// Text and boolean columns
	TopValues []CategoryCount `json:"top_values,omitempty"`
}

// CategoryCount is a value frequency.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Profile computes per-column statistics over t.
func Profile(t *dataset.Table, opt Options) []ColumnProfile {
	if t == nil {
		return nil
	}
	out := make([]ColumnProfile, 0, len(t.Columns))
	for _, c := range t.Columns {
		p := ColumnProfile{Name: c.Name, Type: c.Type, Missing: c.Missing()}
		p.NonNull = len(c.Values) - p.Missing
		switch c.Type {
		case dataset.Numeric:
			profileNumeric(&p, c, opt)
		case dataset.DateTime:
			profileTime(&p, c)
		case dataset.Text, dataset.Boolean:
			profileCategories(&p, c, opt.TopValues)
		}
		out = append(out, p)
	}
	return out
}

func profileNumeric(p *ColumnProfile, c *dataset.Column, opt Options) {
	var n int
	var mean, m2 float64
	lo, hi := math.Inf(1), math.Inf(-1)
	vals := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		x, ok := v.Float()
		if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		n++
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
		// Welford
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
		vals = append(vals, x)
	}
	if n == 0 {
		return
	}
	p.Min, p.Max, p.Mean = lo, hi, finite(mean)
	if n > 1 {
		p.Std = finite(math.Sqrt(m2 / float64(n-1)))
	}
	if opt.Outliers && len(vals) >= 8 {
		thr := opt.OutlierThreshold
		if thr <= 0 {
			thr = 3.5
		}
		median, mad := medianMAD(vals)
		p.OutlierThreshold = thr
		if mad > 0 {
			for _, v := range vals {
				az := math.Abs(0.6745 * (v - median) / mad)
				if az > thr {
					p.OutliersCount++
				}
				if az > p.OutliersMaxAbsZ {
					p.OutliersMaxAbsZ = az
				}
			}
		}
		p.OutliersMaxAbsZ = finite(p.OutliersMaxAbsZ)
	}
}

// finite zeroes values that overflowed; JSON cannot carry them.
func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

func profileTime(p *ColumnProfile, c *dataset.Column) {
	var lo, hi time.Time
	for _, v := range c.Values {
		ts, ok := v.Time()
		if !ok {
			continue
		}
		if lo.IsZero() || ts.Before(lo) {
			lo = ts
		}
		if hi.IsZero() || ts.After(hi) {
			hi = ts
		}
	}
	if !lo.IsZero() {
		p.Earliest = lo.Format(time.RFC3339)
		p.Latest = hi.Format(time.RFC3339)
	}
}

func profileCategories(p *ColumnProfile, c *dataset.Column, top int) {
	cats := map[string]int{}
	for _, v := range c.Values {
		if v.Valid {
			cats[v.Raw]++
		}
	}
	p.Unique = len(cats)
	tops := make([]CategoryCount, 0, len(cats))
	for k, n := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: n})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if top > 0 && len(tops) > top {
		tops = tops[:top]
	}
	p.TopValues = tops
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
