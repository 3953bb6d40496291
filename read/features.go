package read

// Features is a row-major two-dimensional float block, one row per channel
// and one column per signal sample.
type Features struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float32 `json:"data"`
}

// NewFeatures allocates a zeroed rows x cols block.
func NewFeatures(rows, cols int) *Features {
	return &Features{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// At returns the value at (row, col).
func (f *Features) At(row, col int) float32 { return f.Data[row*f.Cols+col] }

// Set stores v at (row, col).
func (f *Features) Set(row, col int, v float32) { f.Data[row*f.Cols+col] = v }

// Row returns the backing slice of one channel.
func (f *Features) Row(row int) []float32 {
	return f.Data[row*f.Cols : (row+1)*f.Cols]
}

// Truncate keeps the first cols columns of every row.
func (f *Features) Truncate(cols int) {
	if cols >= f.Cols {
		return
	}
	if cols < 0 {
		cols = 0
	}
	data := make([]float32, f.Rows*cols)
	for r := 0; r < f.Rows; r++ {
		copy(data[r*cols:(r+1)*cols], f.Data[r*f.Cols:r*f.Cols+cols])
	}
	f.Data = data
	f.Cols = cols
}

// TwoDimensional reports whether the block holds at least one sample on
// more than one channel.
func (f *Features) TwoDimensional() bool {
	return f != nil && f.Rows > 1 && f.Cols > 0
}

// Clone returns a deep copy of f.
func (f *Features) Clone() *Features {
	return &Features{Rows: f.Rows, Cols: f.Cols, Data: append([]float32(nil), f.Data...)}
}
