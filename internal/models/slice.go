package models

// Mask is a single-slice binary segmentation mask stored in row-major order.
// Foreground pixels are any value greater than zero.
type Mask struct {
	// Width and Height are the spatial dimensions of the mask in pixels
	Width  int `msgpack:"width"`
	Height int `msgpack:"height"`

	// Data is the mask content as a 1D array in row-major order
	Data []uint8 `msgpack:"data"`
}

// NewMask creates an all-background mask with the given dimensions.
func NewMask(width, height int) Mask {
	return Mask{
		Width:  width,
		Height: height,
		Data:   make([]uint8, width*height),
	}
}

// ForegroundCount returns the number of foreground pixels in the mask.
func (m Mask) ForegroundCount() int {
	count := 0
	for _, v := range m.Data {
		if v > 0 {
			count++
		}
	}
	return count
}

// HasForeground reports whether the mask contains any foreground pixel.
func (m Mask) HasForeground() bool {
	for _, v := range m.Data {
		if v > 0 {
			return true
		}
	}
	return false
}

// SameShape reports whether two masks share identical spatial dimensions.
func (m Mask) SameShape(other Mask) bool {
	return m.Width == other.Width && m.Height == other.Height
}

// Equal reports exact foreground/background equality between two masks.
func (m Mask) Equal(other Mask) bool {
	if !m.SameShape(other) || len(m.Data) != len(other.Data) {
		return false
	}
	for i, v := range m.Data {
		if (v > 0) != (other.Data[i] > 0) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the mask.
func (m Mask) Clone() Mask {
	out := Mask{Width: m.Width, Height: m.Height, Data: make([]uint8, len(m.Data))}
	copy(out.Data, m.Data)
	return out
}

// ProbMap is a single-slice map of per-pixel values in row-major order.
// It is used both for predicted foreground probabilities (values in [0,1])
// and for normalized entropy maps (values in [0,1]).
type ProbMap struct {
	Width  int       `msgpack:"width"`
	Height int       `msgpack:"height"`
	Data   []float64 `msgpack:"data"`
}

// NewProbMap creates a zero-valued probability map with the given dimensions.
func NewProbMap(width, height int) ProbMap {
	return ProbMap{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// SameShape reports whether two maps share identical spatial dimensions.
func (p ProbMap) SameShape(other ProbMap) bool {
	return p.Width == other.Width && p.Height == other.Height
}

// Threshold binarizes the map at the given level, producing a mask where
// pixels strictly above the level become foreground.
func (p ProbMap) Threshold(level float64) Mask {
	out := NewMask(p.Width, p.Height)
	for i, v := range p.Data {
		if v > level {
			out.Data[i] = 1
		}
	}
	return out
}

// Image is a single grayscale slice image in row-major order.
type Image struct {
	Width  int       `msgpack:"width"`
	Height int       `msgpack:"height"`
	Data   []float64 `msgpack:"data"`
}

// NewImage creates a zero-valued image with the given dimensions.
func NewImage(width, height int) Image {
	return Image{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}
