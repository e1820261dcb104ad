package surface

import (
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/rfsurface/internal/grid"
)

func testGrid(t *testing.T, w, h int) grid.Grid {
	t.Helper()
	values := make([]float32, w*h)
	for i := range values {
		values[i] = float32(i%256) / 255
	}
	g, err := grid.New(grid.Dimensions{Width: w, Height: h}, values)
	require.NoError(t, err)
	return g
}

func TestBuildGeometry(t *testing.T) {
	g := testGrid(t, 4, 3)
	m, err := Build(g)
	require.NoError(t, err)

	assert.Len(t, m.Vertices, 12)
	assert.Equal(t, 3*2, m.TriangleCount()/2, "expected (W-1)*(H-1) quads")

	first := m.VertexAt(0, 0)
	assert.Equal(t, [3]float32{-0.5, 0, -0.5}, first.Position)
	assert.Equal(t, [2]float32{0, 1}, first.UV)

	last := m.VertexAt(3, 2)
	assert.InDelta(t, 0.5, last.Position[0], 1e-6)
	assert.InDelta(t, 0.5, last.Position[2], 1e-6)
	assert.InDelta(t, g.At(3, 2)*HeightScale, last.Position[1], 1e-6)
	assert.Equal(t, [2]float32{1, 0}, last.UV)

	assert.InDelta(t, -0.5, m.Bounds.Min[0], 1e-6)
	assert.InDelta(t, 0.5, m.Bounds.Max[2], 1e-6)
}

func TestBuildDegenerate(t *testing.T) {
	g := grid.Filled(grid.Dimensions{Width: 5, Height: 1}, 0.5)
	_, err := Build(g)
	assert.ErrorIs(t, err, ErrDegenerateGrid)
}

func TestFlatSurfaceNormalsPointUp(t *testing.T) {
	m, err := Build(grid.Filled(grid.Dimensions{Width: 5, Height: 5}, 0.3))
	require.NoError(t, err)
	for i, v := range m.Vertices {
		assert.InDelta(t, 0, v.Normal[0], 1e-6, "vertex %d", i)
		assert.InDelta(t, 1, v.Normal[1], 1e-6, "vertex %d", i)
		assert.InDelta(t, 0, v.Normal[2], 1e-6, "vertex %d", i)
	}
}

func TestSlopedNormalsAreUnitLength(t *testing.T) {
	m, err := Build(testGrid(t, 6, 6))
	require.NoError(t, err)
	for _, v := range m.Vertices {
		n := v.Normal
		l := math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]))
		assert.InDelta(t, 1, l, 1e-5)
		assert.Greater(t, n[1], float32(0))
	}
}

func TestHueMonotonic(t *testing.T) {
	prev := Hue(0)
	assert.InDelta(t, BaseHue, prev, 1e-9)
	for i := 1; i <= 255; i++ {
		h := Hue(float32(i) / 255)
		assert.Less(t, h, prev, "hue must decrease as value grows (step %d)", i)
		prev = h
	}
}

func TestColorEndpoints(t *testing.T) {
	low := Color(0)
	high := Color(1)
	assert.Greater(t, low[2], low[0], "low values should be blue")
	assert.Greater(t, high[0], high[2], "high values should be red")
	assert.Equal(t, float32(1), low[3])
}

func TestBuildSingle(t *testing.T) {
	g := grid.Filled(grid.Dimensions{Width: 4, Height: 4}, 128.0/255)
	s, err := BuildSingle(g, 2)
	require.NoError(t, err)

	require.Equal(t, SingleLayout{Width: 4, Height: 4, Downsample: 2}, s.Layout)
	assert.Equal(t, grid.Dimensions{Width: 2, Height: 2}, s.Mesh.Dims)
	assert.Equal(t, s.Layout.Dims(), s.Mesh.Dims)
	for _, v := range s.Mesh.Vertices {
		assert.InDelta(t, 128.0/255*HeightScale, v.Position[1], 1e-6)
	}
	assert.InDelta(t, 128.0/255, s.Stats.Mean, 1e-6)
}

func TestBuildMulti(t *testing.T) {
	stack := grid.NewStack(3)
	for range 4 {
		require.NoError(t, stack.Append([]float32{0, 0.5, 1}))
	}
	s, err := BuildMulti(stack)
	require.NoError(t, err)
	assert.Equal(t, MultiLayout{Width: 3, Time: 4}, s.Layout)
	assert.Equal(t, grid.Dimensions{Width: 3, Height: 4}, s.Mesh.Dims)

	one := grid.NewStack(3)
	require.NoError(t, one.Append([]float32{0, 0, 0}))
	_, err = BuildMulti(one)
	assert.ErrorIs(t, err, ErrDegenerateGrid)
}

func TestLayoutJSON(t *testing.T) {
	for _, l := range []Layout{
		SingleLayout{Width: 10, Height: 8, Downsample: 2},
		MultiLayout{Width: 10, Time: 5},
	} {
		data, err := MarshalLayout(l)
		require.NoError(t, err)
		got, err := UnmarshalLayout(data)
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}

	s, err := BuildSingle(grid.Filled(grid.Dimensions{Width: 2, Height: 2}, 0), 1)
	require.NoError(t, err)
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"layout":{"mode":"single","width":2,"height":2,"downsample":1}`)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("MULTI")
	require.NoError(t, err)
	assert.Equal(t, ModeMulti, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSingle, m)

	_, err = ParseMode("stereo")
	assert.Error(t, err)
}

// releaseRecorder counts how often each surface was released.
type releaseRecorder struct {
	mu       sync.Mutex
	released map[*Surface]int
	applied  []Layers
}

func (r *releaseRecorder) hooks() Hooks {
	r.released = map[*Surface]int{}
	return Hooks{
		Release: func(s *Surface) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.released[s]++
		},
		ApplyLayers: func(_ *Surface, l Layers) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.applied = append(r.applied, l)
		},
	}
}

func TestStateReleasesPrevious(t *testing.T) {
	var rec releaseRecorder
	st := NewState(rec.hooks(), nil)

	_, err := st.Current()
	assert.ErrorIs(t, err, ErrNoSurface)

	const n = 5
	var built []*Surface
	for range n {
		s, err := BuildSingle(testGrid(t, 3, 3), 1)
		require.NoError(t, err)
		require.NoError(t, st.Install(st.Begin(), s))
		built = append(built, s)
	}

	for i, s := range built[:n-1] {
		assert.Equal(t, 1, rec.released[s], "surface %d should be released exactly once", i)
	}
	assert.Zero(t, rec.released[built[n-1]], "live surface must not be released")

	cur, err := st.Current()
	require.NoError(t, err)
	assert.Same(t, built[n-1], cur)
	assert.Len(t, rec.applied, n, "layers are applied on every install")

	st.Close()
	assert.Equal(t, 1, rec.released[built[n-1]])
	_, err = st.Current()
	assert.ErrorIs(t, err, ErrNoSurface)
}

func TestStateSupersededInstall(t *testing.T) {
	var rec releaseRecorder
	st := NewState(rec.hooks(), nil)

	older := st.Begin()
	newer := st.Begin()

	fresh, err := BuildSingle(testGrid(t, 2, 2), 1)
	require.NoError(t, err)
	stale, err := BuildSingle(testGrid(t, 2, 2), 1)
	require.NoError(t, err)

	require.NoError(t, st.Install(newer, fresh))
	err = st.Install(older, stale)
	assert.True(t, errors.Is(err, ErrSuperseded))

	cur, err := st.Current()
	require.NoError(t, err)
	assert.Same(t, fresh, cur, "a stale completion must not replace a newer surface")
	assert.Empty(t, rec.released)
}

func TestStateSetLayers(t *testing.T) {
	var rec releaseRecorder
	st := NewState(rec.hooks(), nil)
	assert.Equal(t, AllLayers(), st.Layers())

	// No surface yet: flags are stored but nothing is applied.
	st.SetLayers(Layers{Surface: true})
	assert.Empty(t, rec.applied)

	s, err := BuildSingle(testGrid(t, 2, 2), 1)
	require.NoError(t, err)
	require.NoError(t, st.Install(st.Begin(), s))
	require.Len(t, rec.applied, 1)
	assert.Equal(t, Layers{Surface: true}, rec.applied[0])

	st.SetLayers(Layers{Axes: true})
	require.Len(t, rec.applied, 2)
	assert.Equal(t, Layers{Axes: true}, rec.applied[1])
}

func TestStateConcurrentReaders(t *testing.T) {
	st := NewState(Hooks{}, nil)
	surfaces := make([]*Surface, 8)
	for i := range surfaces {
		s, err := BuildSingle(testGrid(t, 3+i, 3), 1)
		require.NoError(t, err)
		surfaces[i] = s
	}

	var wg sync.WaitGroup
	for _, s := range surfaces {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.Install(st.Begin(), s)
			if cur, err := st.Current(); err == nil {
				assert.Equal(t, cur.Layout.Dims(), cur.Mesh.Dims)
			}
		}()
	}
	wg.Wait()
}
