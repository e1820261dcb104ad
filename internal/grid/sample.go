package grid

// MinSampledExtent is the smallest sampled extent; a mesh needs two vertices per axis.
const MinSampledExtent = 2

// SampleDims returns the output extent for a w x h source at downsample factor ds.
// ds below 1 is treated as 1.
func SampleDims(w, h, ds int) Dimensions {
	if ds < 1 {
		ds = 1
	}
	return Dimensions{
		Width:  max(MinSampledExtent, w/ds),
		Height: max(MinSampledExtent, h/ds),
	}
}

// Sample decimates g by ds using nearest-neighbour lookup.
// Cell (x, z) takes src[min(H-1, z*ds)][min(W-1, x*ds)]; values are never interpolated.
func Sample(g Grid, ds int) Grid {
	if ds < 1 {
		ds = 1
	}
	src := g.Dims
	out := SampleDims(src.Width, src.Height, ds)
	values := make([]float32, out.Len())

	for z := range out.Height {
		sz := min(src.Height-1, z*ds)
		for x := range out.Width {
			sx := min(src.Width-1, x*ds)
			values[z*out.Width+x] = g.Values[sz*src.Width+sx]
		}
	}

	return Grid{Dims: out, Values: values}
}
