package raster

// Grid is a row-major 2D array of samples.
type Grid struct {
	Rows int
	Cols int
	Data []float64
}

// NewGrid allocates a zeroed rows x cols grid.
func NewGrid(rows, cols int) Grid {
	return Grid{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// At returns the sample at row r, column c.
func (g Grid) At(r, c int) float64 {
	return g.Data[r*g.Cols+c]
}

// Bounds is an axis-aligned box in some CRS (lon/lat for EPSG:4326).
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether the box has no area.
func (b Bounds) Empty() bool {
	return !(b.MaxX > b.MinX) || !(b.MaxY > b.MinY)
}
