// Package dataprep implements the local dataset transformations: class
// balancing by oversampling or undersampling, and noise augmentation of
// numeric columns. Rows are JSON-decoded records; numeric fields are
// float64, everything else is copied through untouched.
package dataprep

import (
	"fmt"
	"math/rand"
)

// Rows is a dataset of JSON records.
type Rows []map[string]any

// classCounts tallies rows per label value. Label values are compared by
// their string form so numeric and string labels behave alike.
func classCounts(rows Rows, labelKey string) (map[string][]int, error) {
	byClass := make(map[string][]int)
	for i, row := range rows {
		v, ok := row[labelKey]
		if !ok {
			return nil, fmt.Errorf("row %d: missing label column %q", i, labelKey)
		}
		label := fmt.Sprint(v)
		byClass[label] = append(byClass[label], i)
	}
	return byClass, nil
}

// Oversample balances the dataset by synthesizing minority-class rows until
// every class matches the majority count. New rows interpolate numeric
// fields between two random same-class rows; other fields are copied from
// the first parent.
func Oversample(rows Rows, labelKey string, rng *rand.Rand) (Rows, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	byClass, err := classCounts(rows, labelKey)
	if err != nil {
		return nil, err
	}

	max := 0
	for _, idxs := range byClass {
		if len(idxs) > max {
			max = len(idxs)
		}
	}

	out := make(Rows, 0, max*len(byClass))
	out = append(out, rows...)
	for _, idxs := range byClass {
		for need := max - len(idxs); need > 0; need-- {
			a := rows[idxs[rng.Intn(len(idxs))]]
			b := rows[idxs[rng.Intn(len(idxs))]]
			out = append(out, interpolate(a, b, labelKey, rng.Float64()))
		}
	}
	return out, nil
}

// Undersample balances the dataset by randomly discarding majority-class
// rows until every class matches the minority count.
func Undersample(rows Rows, labelKey string, rng *rand.Rand) (Rows, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	byClass, err := classCounts(rows, labelKey)
	if err != nil {
		return nil, err
	}

	min := len(rows)
	for _, idxs := range byClass {
		if len(idxs) < min {
			min = len(idxs)
		}
	}

	var out Rows
	for _, idxs := range byClass {
		rng.Shuffle(len(idxs), func(i, j int) { idxs[i], idxs[j] = idxs[j], idxs[i] })
		for _, i := range idxs[:min] {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

// AddNoise returns a copy of the dataset with Gaussian noise added to every
// numeric field: v becomes v + N(0,1)*scale*|v|. Fields named in exclude and
// non-numeric fields are copied unchanged. scale 0 is the identity.
func AddNoise(rows Rows, scale float64, exclude []string, rng *rand.Rand) (Rows, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	if scale < 0 {
		return nil, fmt.Errorf("noise scale must be non-negative, got %v", scale)
	}

	skip := make(map[string]bool, len(exclude))
	for _, k := range exclude {
		skip[k] = true
	}

	out := make(Rows, len(rows))
	for i, row := range rows {
		nr := make(map[string]any, len(row))
		for k, v := range row {
			if f, ok := v.(float64); ok && !skip[k] {
				nr[k] = f + rng.NormFloat64()*scale*abs(f)
			} else {
				nr[k] = v
			}
		}
		out[i] = nr
	}
	return out, nil
}

// interpolate builds a synthetic row between two parents: numeric fields are
// linearly interpolated at t, everything else (the label included) comes
// from a.
func interpolate(a, b map[string]any, labelKey string, t float64) map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		if k == labelKey {
			out[k] = v
			continue
		}
		fa, okA := v.(float64)
		fb, okB := b[k].(float64)
		if okA && okB {
			out[k] = fa + t*(fb-fa)
		} else {
			out[k] = v
		}
	}
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
