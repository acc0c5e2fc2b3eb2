package dimarray

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/dimarray/ndarray"
	"github.com/YuminosukeSato/dimarray/pkg/errors"
)

func groupKey(t *testing.T, labels []string, dim string) *DataArray {
	t.Helper()
	values, err := ndarray.NewString(labels, len(labels))
	require.NoError(t, err)
	key, err := NewDataArray("station", values, []string{dim})
	require.NoError(t, err)
	return key
}

func TestGroupBySum(t *testing.T) {
	da := mustDataArray(t, "v", []float64{1, 2, 3, 4, 5, 6}, []string{"time"}, 6)
	key := groupKey(t, []string{"a", "a", "b", "b", "a", "b"}, "time")

	gb, err := da.GroupByArray(key, false)
	require.NoError(t, err)
	assert.Equal(t, 2, gb.Len())

	got, err := gb.Sum(GroupByOpts{})
	require.NoError(t, err)

	// キーの初出順に新しい次元が並ぶ
	assert.Equal(t, []string{"station"}, got.Dims())
	assert.True(t, got.Values().Equal(mustArray(t, []float64{8, 13}, 2)))

	// キー値は結果の座標になる
	coord, ok := got.Coord("station")
	require.True(t, ok)
	keys, err := coord.Values().Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

// キーが欠損の観測はどのグループにも含まれない。NaNはmapのキーとして
// 自分自身と一致しないため、残すと観測ごとにグループが分裂してしまう。
func TestGroupByDropsMissingKeys(t *testing.T) {
	da := mustDataArray(t, "v", []float64{1, 2, 3, 4, 5}, []string{"time"}, 5)
	keyValues := mustArray(t, []float64{1, math.NaN(), 2, math.NaN(), 1}, 5)
	key, err := NewDataArray("bin", keyValues, []string{"time"})
	require.NoError(t, err)

	gb, err := da.GroupByArray(key, false)
	require.NoError(t, err)
	require.Equal(t, 2, gb.Len())

	groups := gb.GroupIndices()
	assert.Equal(t, []int{0, 4}, groups[0])
	assert.Equal(t, []int{2}, groups[1])

	keys, err := gb.Keys().Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, keys)

	got, err := gb.Sum(GroupByOpts{})
	require.NoError(t, err)
	assert.True(t, got.Values().Equal(mustArray(t, []float64{6, 3}, 2)))
}

// グループのインデックス集合は元の位置の正確な分割になる。
func TestGroupByPartition(t *testing.T) {
	da := mustDataArray(t, "v", []float64{1, 2, 3, 4, 5, 6}, []string{"time"}, 6)
	key := groupKey(t, []string{"a", "a", "b", "b", "a", "b"}, "time")

	gb, err := da.GroupByArray(key, false)
	require.NoError(t, err)

	groups := gb.GroupIndices()
	require.Len(t, groups, 2)
	assert.Equal(t, []int{0, 1, 4}, groups[0])
	assert.Equal(t, []int{2, 3, 5}, groups[1])

	seen := make(map[int]bool)
	for _, g := range groups {
		for _, i := range g {
			assert.False(t, seen[i], "index %d assigned twice", i)
			seen[i] = true
		}
	}
	assert.Len(t, seen, 6)
}

func TestGroupByByName(t *testing.T) {
	da := mustDataArray(t, "v", []float64{1, 2, 3}, []string{"time"}, 3)
	coordVals, err := ndarray.NewInt64([]int64{1, 2, 1}, 3)
	require.NoError(t, err)
	coord, err := NewDataArray("id", coordVals, []string{"time"})
	require.NoError(t, err)
	require.NoError(t, da.SetCoord("time", coord))

	// 座標名で参照する
	gb, err := da.GroupBy("time", false)
	require.NoError(t, err)
	got, err := gb.Sum(GroupByOpts{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, got.Dims())
	assert.True(t, got.Values().Equal(mustArray(t, []float64{4, 2}, 2)))

	_, err = da.GroupBy("nope", false)
	assert.Error(t, err)
}

func TestGroupByValidation(t *testing.T) {
	da := mustDataArray(t, "v", []float64{1, 2, 3}, []string{"time"}, 3)

	// キー長の不一致
	short := groupKey(t, []string{"a", "b"}, "time")
	_, err := da.GroupByArray(short, false)
	var sm *errors.ShapeMismatchError
	require.True(t, errors.As(err, &sm))
	assert.Equal(t, "time", sm.Dim)

	// 対象にない次元のキー
	wrongDim := groupKey(t, []string{"a", "b", "c"}, "space")
	_, err = da.GroupByArray(wrongDim, false)
	var dnf *errors.DimensionNotFoundError
	assert.True(t, errors.As(err, &dnf))

	// 2次元のキーは不可
	matKey, err := NewDataArray("k", mustArray(t, []float64{1, 2, 3, 4}, 2, 2), []string{"a", "b"})
	require.NoError(t, err)
	_, err = da.GroupByArray(matKey, false)
	assert.Error(t, err)
}

func TestGroupByGroupsIteration(t *testing.T) {
	da := mustDataArray(t, "v", []float64{1, 2, 3, 4}, []string{"time"}, 4)
	key := groupKey(t, []string{"a", "b", "a", "b"}, "time")

	gb, err := da.GroupByArray(key, false)
	require.NoError(t, err)

	var keys []string
	var sizes []int
	for k, sub := range gb.Groups() {
		keys = append(keys, k.(string))
		n, err := sub.DimSize("time")
		require.NoError(t, err)
		sizes = append(sizes, n)
	}
	assert.Equal(t, []string{"a", "b"}, keys)
	assert.Equal(t, []int{2, 2}, sizes)
}

// squeezeが有効な場合、長さ1のグループは分割次元を落とす。
func TestGroupBySqueeze(t *testing.T) {
	da := mustDataArray(t, "v", []float64{1, 2, 3}, []string{"time"}, 3)
	key := groupKey(t, []string{"a", "b", "b"}, "time")

	gb, err := da.GroupByArray(key, true)
	require.NoError(t, err)

	var ranks []int
	for _, sub := range gb.Groups() {
		ranks = append(ranks, sub.NDim())
	}
	assert.Equal(t, []int{0, 1}, ranks)
}

func TestGroupByMean2D(t *testing.T) {
	// 4x2: time x space
	da := mustDataArray(t, "v", []float64{1, 2, 3, 4, 5, 6, 7, 8}, []string{"time", "space"}, 4, 2)
	key := groupKey(t, []string{"x", "y", "x", "y"}, "time")

	gb, err := da.GroupByArray(key, false)
	require.NoError(t, err)
	got, err := gb.Mean(GroupByOpts{})
	require.NoError(t, err)

	// グループ次元が先頭、残りの次元が続く
	assert.Equal(t, []string{"station", "space"}, got.Dims())
	assert.True(t, got.Values().Equal(mustArray(t, []float64{3, 4, 5, 6}, 2, 2)))
}

func TestGroupByCustomAggregation(t *testing.T) {
	da := mustDataArray(t, "v", []float64{1, 2, 3, 4}, []string{"time"}, 4)
	key := groupKey(t, []string{"a", "a", "b", "b"}, "time")

	gb, err := da.GroupByArray(key, false)
	require.NoError(t, err)

	got, err := gb.Aggregate(CustomAggregation(func(values []float64) float64 {
		return values[len(values)-1] - values[0]
	}), GroupByOpts{})
	require.NoError(t, err)
	assert.True(t, got.Values().Equal(mustArray(t, []float64{1, 1}, 2)))
}

// 呼び出し側の集約関数がパニックしてもエラーとして返る。
func TestGroupByReduceRecoversPanic(t *testing.T) {
	da := mustDataArray(t, "v", []float64{1, 2}, []string{"time"}, 2)
	key := groupKey(t, []string{"a", "b"}, "time")

	gb, err := da.GroupByArray(key, false)
	require.NoError(t, err)

	_, err = gb.Reduce(func([]float64) float64 { panic("bad kernel") }, GroupByOpts{})
	require.Error(t, err)
	var pe *errors.PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "GroupBy.Reduce", pe.Operation)
}

func TestGroupByUnknownAggregation(t *testing.T) {
	da := mustDataArray(t, "v", []float64{1, 2}, []string{"time"}, 2)
	key := groupKey(t, []string{"a", "b"}, "time")
	gb, err := da.GroupByArray(key, false)
	require.NoError(t, err)

	_, err = gb.Aggregate(NamedAggregation("total"), GroupByOpts{})
	var ua *errors.UnknownAggregationError
	assert.True(t, errors.As(err, &ua))
}

func TestGroupByFirstLast(t *testing.T) {
	da := mustDataArray(t, "v", []float64{math.NaN(), 2, 3, 4}, []string{"time"}, 4)
	key := groupKey(t, []string{"a", "a", "b", "b"}, "time")

	gb, err := da.GroupByArray(key, false)
	require.NoError(t, err)

	// skipnaデフォルト(浮動小数点はtrue): 最初の非欠損値
	first, err := gb.First(nil)
	require.NoError(t, err)
	assert.True(t, first.Values().Equal(mustArray(t, []float64{2, 3}, 2)))

	// skipna=false: NaNがそのまま残る
	raw, err := gb.First(SkipNA(false))
	require.NoError(t, err)
	v := raw.Values().Float64At(0)
	assert.True(t, math.IsNaN(v))

	last, err := gb.Last(nil)
	require.NoError(t, err)
	assert.True(t, last.Values().Equal(mustArray(t, []float64{2, 4}, 2)))
}

// first/lastは非数値型にも適用できる。
func TestGroupByFirstNonNumeric(t *testing.T) {
	values, err := ndarray.NewString([]string{"p", "q", "r", "s"}, 4)
	require.NoError(t, err)
	da, err := NewDataArray("tag", values, []string{"time"})
	require.NoError(t, err)
	key := groupKey(t, []string{"a", "b", "a", "b"}, "time")

	gb, err := da.GroupByArray(key, false)
	require.NoError(t, err)

	first, err := gb.First(nil)
	require.NoError(t, err)
	got, err := first.Values().Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "q"}, got)

	last, err := gb.Last(nil)
	require.NoError(t, err)
	got, err = last.Values().Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"r", "s"}, got)
}

// 数値集約をかけるとfloat以外のキーでも動く: 整数キーのグルーピング。
func TestGroupByIntKeys(t *testing.T) {
	da := mustDataArray(t, "v", []float64{1, 2, 3}, []string{"time"}, 3)
	keyVals, err := ndarray.NewInt64([]int64{7, 9, 7}, 3)
	require.NoError(t, err)
	key, err := NewDataArray("bucket", keyVals, []string{"time"})
	require.NoError(t, err)

	gb, err := da.GroupByArray(key, false)
	require.NoError(t, err)
	got, err := gb.Sum(GroupByOpts{})
	require.NoError(t, err)

	assert.True(t, got.Values().Equal(mustArray(t, []float64{4, 2}, 2)))
	coord, _ := got.Coord("bucket")
	assert.Equal(t, ndarray.Int64, coord.Values().DType())
}

func TestDatasetGroupBy(t *testing.T) {
	ds := NewDataset()
	require.NoError(t, ds.Set("temp", mustDataArray(t, "temp", []float64{1, 2, 3, 4}, []string{"time"}, 4)))
	require.NoError(t, ds.Set("height", mustDataArray(t, "height", []float64{100}, []string{"alt"}, 1)))

	tags, err := ndarray.NewString([]string{"p", "q", "r", "s"}, 4)
	require.NoError(t, err)
	tagVar, err := NewDataArray("tag", tags, []string{"time"})
	require.NoError(t, err)
	require.NoError(t, ds.Set("tag", tagVar))

	key := groupKey(t, []string{"a", "b", "a", "b"}, "time")
	gb, err := ds.GroupByArray(key, false)
	require.NoError(t, err)
	assert.Equal(t, 2, gb.Len())

	got, err := gb.Sum(GroupByOpts{})
	require.NoError(t, err)

	temp, err := got.Var("temp")
	require.NoError(t, err)
	assert.Equal(t, []string{"station"}, temp.Dims())
	assert.True(t, temp.Values().Equal(mustArray(t, []float64{4, 6}, 2)))

	// 分割次元を持たない変数はそのまま
	height, err := got.Var("height")
	require.NoError(t, err)
	assert.Equal(t, []string{"alt"}, height.Dims())

	// 数値集約では非数値変数は黙って除外
	_, err = got.Var("tag")
	assert.Error(t, err)
}

// 変数名でグルーピングし、first/lastなら非数値変数も選択される。
func TestDatasetGroupByFirst(t *testing.T) {
	ds := NewDataset()
	require.NoError(t, ds.Set("temp", mustDataArray(t, "temp", []float64{1, 2, 3, 4}, []string{"time"}, 4)))
	labels, err := ndarray.NewString([]string{"a", "b", "a", "b"}, 4)
	require.NoError(t, err)
	station, err := NewDataArray("station", labels, []string{"time"})
	require.NoError(t, err)
	require.NoError(t, ds.Set("station", station))

	gb, err := ds.GroupBy("station", false)
	require.NoError(t, err)

	got, err := gb.First(nil)
	require.NoError(t, err)
	temp, err := got.Var("temp")
	require.NoError(t, err)
	assert.True(t, temp.Values().Equal(mustArray(t, []float64{1, 2}, 2)))

	// キー変数自身も選択の対象になる
	st, err := got.Var("station")
	require.NoError(t, err)
	keys, err := st.Values().Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}
