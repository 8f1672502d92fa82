package ndvi

import (
	"fmt"
	"math"

	"github.com/i474232898/ndvi-service/internal/raster"
)

// PixelIndex is (nir - red) / (nir + red). A zero denominator yields NaN or ±Inf.
func PixelIndex(red, nir float64) float64 {
	return (nir - red) / (nir + red)
}

// Index computes NDVI elementwise over two equally shaped grids.
func Index(red, nir raster.Grid) (raster.Grid, error) {
	if red.Rows != nir.Rows || red.Cols != nir.Cols {
		return raster.Grid{}, newError(KindProcessing, "ndvi",
			fmt.Errorf("band shape mismatch: red %dx%d, nir %dx%d", red.Rows, red.Cols, nir.Rows, nir.Cols))
	}
	if len(red.Data) != red.Rows*red.Cols || len(nir.Data) != nir.Rows*nir.Cols {
		return raster.Grid{}, newError(KindProcessing, "ndvi", fmt.Errorf("band data length does not match shape"))
	}

	out := raster.NewGrid(red.Rows, red.Cols)
	for i := range red.Data {
		out.Data[i] = PixelIndex(red.Data[i], nir.Data[i])
	}
	return out, nil
}

// Stats summarizes an index grid. Non-finite values are masked out; Mean and Std
// are only meaningful when Valid > 0.
type Stats struct {
	Mean  float64
	Std   float64 // population standard deviation
	Valid int
	Total int
}

// Summarize computes mean and population standard deviation over the finite values.
func Summarize(values []float64) Stats {
	st := Stats{Total: len(values)}

	var sum float64
	for _, v := range values {
		if !finite(v) {
			continue
		}
		sum += v
		st.Valid++
	}
	if st.Valid == 0 {
		return st
	}

	n := float64(st.Valid)
	st.Mean = sum / n

	// Second pass keeps the variance exact for constant inputs.
	var sq float64
	for _, v := range values {
		if !finite(v) {
			continue
		}
		d := v - st.Mean
		sq += d * d
	}
	st.Std = math.Sqrt(sq / n)
	return st
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
