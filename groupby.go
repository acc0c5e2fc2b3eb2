package dimarray

import (
	"iter"
	"math"

	"github.com/YuminosukeSato/dimarray/core/dims"
	"github.com/YuminosukeSato/dimarray/core/dtype"
	"github.com/YuminosukeSato/dimarray/ndarray"
	"github.com/YuminosukeSato/dimarray/pkg/errors"
	"github.com/YuminosukeSato/dimarray/pkg/log"
)

// Aggregation はグループ集約の指定です。名前による指定（NamedAggregation）と
// 呼び出し側が与える任意の生集約関数（CustomAggregation）のタグ付き
// バリアントで、文字列比較をディスパッチに散在させないための表現。
type Aggregation interface {
	isAggregation()
}

// NamedAggregation は合成済みの集約を名前で指定する。
// "first"と"last"は次元引数を取らない要素選択として特別扱いされる。
type NamedAggregation string

func (NamedAggregation) isAggregation() {}

// CustomAggregation は任意の生集約関数による指定。
type CustomAggregation ndarray.Kernel

func (CustomAggregation) isAggregation() {}

// GroupByOpts はグループ集約時のオプションです。
type GroupByOpts struct {
	// SkipNA は欠損値(NaN)を無視するか。nilは型依存デフォルト。
	SkipNA *bool
	// KeepAttrs が真の場合、結果は入力の属性を引き継ぐ。
	KeepAttrs bool
}

// DataArrayGroupBy はDataArrayの1次元をキー配列の等値または時間バケットで
// 分割したグルーピングです。1回のgroupby/resample呼び出しごとに構築され、
// 集約が完了したら破棄される。
type DataArrayGroupBy struct {
	obj     *DataArray
	dim     string // 分割対象の次元
	keyName string // 結果に現れる新しい次元名
	keys    *ndarray.Array
	groups  [][]int
	squeeze bool
	logger  log.Logger
}

// GroupBy は名前で参照した座標配列の一意な値で配列をグルーピングする。
// squeezeは反復時に長さ1となる分割次元を落とすかを制御する。
func (da *DataArray) GroupBy(group string, squeeze bool) (*DataArrayGroupBy, error) {
	c, ok := da.Coord(group)
	if !ok {
		return nil, errors.Newf("dimarray: no coordinate named %q to group by", group)
	}
	return da.GroupByArray(c, squeeze)
}

// GroupByArray は1次元のキー配列の一意な値で配列をグルーピングする。
// キー配列の次元は対象配列の次元のいずれかで、長さが一致しなければ
// ならない。キーが欠損（NaN/NaT）の観測はどのグループにも含まれない。
func (da *DataArray) GroupByArray(group *DataArray, squeeze bool) (*DataArrayGroupBy, error) {
	dim, err := groupDim(group, da.dims)
	if err != nil {
		return nil, err
	}
	size, err := da.DimSize(dim)
	if err != nil {
		return nil, err
	}
	if group.values.Len() != size {
		return nil, errors.NewShapeMismatchError("GroupBy", dim, size, group.values.Len())
	}

	keys, groups := partitionByValue(group.values)

	keyName := group.name
	if keyName == "" {
		keyName = "group"
	}
	gb := &DataArrayGroupBy{
		obj:     da,
		dim:     dim,
		keyName: keyName,
		keys:    keys,
		groups:  groups,
		squeeze: squeeze,
		logger:  log.GetLogger().With(log.ComponentKey, "dimarray", log.ContainerKey, "DataArray"),
	}
	gb.logger.Debug("partition built",
		log.OperationKey, log.OperationGroupBy,
		log.DimKey, dim,
		log.SamplesKey, size,
		log.GroupsKey, len(groups),
	)
	return gb, nil
}

// groupDim はキー配列の分割対象次元を検証して返す。
func groupDim(group *DataArray, objDims []string) (string, error) {
	if group.NDim() != 1 {
		return "", errors.Newf("dimarray: group array must be 1-dimensional, got rank %d", group.NDim())
	}
	dim := group.dims[0]
	if !dims.Contains(objDims, dim) {
		return "", errors.NewDimensionNotFoundError(dim, objDims)
	}
	return dim, nil
}

// partitionByValue は一意なキー値（初出順）とキーごとのインデックス集合を
// 計算する。キーが欠損（NaN/NaT）の位置はどのグループにも属さない。
// NaN同士はmapのキーとして一致しないため、落とさず残すと観測1つごとに
// グループが分裂してしまう。
func partitionByValue(a *ndarray.Array) (*ndarray.Array, [][]int) {
	n := a.Size()
	order := make(map[any]int)
	var groups [][]int
	var keyOrder []any
	for i := 0; i < n; i++ {
		if missingKey(a, i) {
			continue
		}
		k := keyValue(a, i)
		gi, ok := order[k]
		if !ok {
			gi = len(groups)
			order[k] = gi
			groups = append(groups, nil)
			keyOrder = append(keyOrder, k)
		}
		groups[gi] = append(groups[gi], i)
	}
	return keysToArray(a.DType(), keyOrder), groups
}

func missingKey(a *ndarray.Array, i int) bool {
	switch a.DType() {
	case ndarray.Float64:
		return math.IsNaN(a.Float64At(i))
	case ndarray.Time:
		return a.TimeNanosAt(i) == ndarray.NaT
	}
	return false
}

func keyValue(a *ndarray.Array, i int) any {
	switch a.DType() {
	case ndarray.String:
		return a.StringAt(i)
	case ndarray.Float64:
		return a.Float64At(i)
	case ndarray.Bool:
		return a.BoolAt(i)
	default: // Int64, Time
		return a.Int64At(i)
	}
}

func keysToArray(dt ndarray.DType, keys []any) *ndarray.Array {
	n := len(keys)
	switch dt {
	case ndarray.String:
		ss := make([]string, n)
		for i, k := range keys {
			ss[i] = k.(string)
		}
		arr, _ := ndarray.NewString(ss, n)
		return arr
	case ndarray.Float64:
		fs := make([]float64, n)
		for i, k := range keys {
			fs[i] = k.(float64)
		}
		arr, _ := ndarray.NewFloat64(fs, n)
		return arr
	case ndarray.Bool:
		bs := make([]bool, n)
		for i, k := range keys {
			bs[i] = k.(bool)
		}
		arr, _ := ndarray.NewBool(bs, n)
		return arr
	case ndarray.Time:
		is := make([]int64, n)
		for i, k := range keys {
			is[i] = k.(int64)
		}
		arr, _ := ndarray.NewTimeNanos(is, n)
		return arr
	default:
		is := make([]int64, n)
		for i, k := range keys {
			is[i] = k.(int64)
		}
		arr, _ := ndarray.NewInt64(is, n)
		return arr
	}
}

// Len はグループ数を返す。
func (g *DataArrayGroupBy) Len() int { return len(g.groups) }

// Keys は一意なキー値の1次元配列を返す。
func (g *DataArrayGroupBy) Keys() *ndarray.Array { return g.keys }

// GroupIndices はキーごとのインデックス集合を返す。
func (g *DataArrayGroupBy) GroupIndices() [][]int {
	out := make([][]int, len(g.groups))
	for i, idx := range g.groups {
		out[i] = append([]int(nil), idx...)
	}
	return out
}

// Groups は(キー値, グループ部分配列)の組の列を返す。squeezeが有効で
// グループが長さ1の場合、分割次元は部分配列から取り除かれる。
func (g *DataArrayGroupBy) Groups() iter.Seq2[any, *DataArray] {
	return func(yield func(any, *DataArray) bool) {
		for i, idx := range g.groups {
			var sub *DataArray
			var err error
			if g.squeeze && len(idx) == 1 {
				sub, err = g.obj.IselAt(g.dim, idx[0])
			} else {
				sub, err = g.obj.Isel(g.dim, idx)
			}
			if err != nil {
				continue
			}
			if !yield(keyValue(g.keys, i), sub) {
				return
			}
		}
	}
}

// Aggregate は集約指定をグループごとに適用し、キー値をラベルとする
// 新しい次元で結果を結合する。キーの順序は等値グルーピングでは初出順、
// 時間バケットでは時系列順になる。
func (g *DataArrayGroupBy) Aggregate(how Aggregation, opts GroupByOpts) (*DataArray, error) {
	switch h := how.(type) {
	case NamedAggregation:
		name := string(h)
		if name == "first" || name == "last" {
			return g.firstLast(name == "last", opts)
		}
		op, err := ArrayAggregation(name)
		if err != nil {
			return nil, err
		}
		return g.apply(func(sub *DataArray) (*DataArray, error) {
			return op(sub, ReduceOpts{Dim: []string{g.dim}, SkipNA: opts.SkipNA, KeepAttrs: opts.KeepAttrs})
		}, opts)
	case CustomAggregation:
		return g.Reduce(ndarray.Kernel(h), opts)
	default:
		return nil, errors.Newf("dimarray: unsupported aggregation specification %T", how)
	}
}

// Reduce は任意の生集約関数をグループごとに適用する。呼び出し側の関数が
// パニックした場合はエラーに変換して返す。
func (g *DataArrayGroupBy) Reduce(k ndarray.Kernel, opts GroupByOpts) (result *DataArray, err error) {
	defer errors.Recover(&err, "GroupBy.Reduce")
	return g.apply(func(sub *DataArray) (*DataArray, error) {
		return sub.Reduce(k, ReduceOpts{Dim: []string{g.dim}, SkipNA: opts.SkipNA, KeepAttrs: opts.KeepAttrs})
	}, opts)
}

// Sum はグループごとの総和。
func (g *DataArrayGroupBy) Sum(opts GroupByOpts) (*DataArray, error) {
	return g.Aggregate(NamedAggregation("sum"), opts)
}

// Mean はグループごとの算術平均。
func (g *DataArrayGroupBy) Mean(opts GroupByOpts) (*DataArray, error) {
	return g.Aggregate(NamedAggregation("mean"), opts)
}

// First はグループ内の最初の（skipna時は最初の非欠損）要素を選択する。
func (g *DataArrayGroupBy) First(skipna *bool) (*DataArray, error) {
	return g.Aggregate(NamedAggregation("first"), GroupByOpts{SkipNA: skipna})
}

// Last はグループ内の最後の（skipna時は最後の非欠損）要素を選択する。
func (g *DataArrayGroupBy) Last(skipna *bool) (*DataArray, error) {
	return g.Aggregate(NamedAggregation("last"), GroupByOpts{SkipNA: skipna})
}

// firstLast は数値を畳み込まない要素選択。次元引数を取らず、skipnaのみに
// 従う。
func (g *DataArrayGroupBy) firstLast(last bool, opts GroupByOpts) (*DataArray, error) {
	v := g.obj.values
	if v.DType().IsNumeric() {
		skip := v.DType().IsFloat()
		if opts.SkipNA != nil {
			skip = *opts.SkipNA
		}
		k := selectKernel(last, skip)
		return g.apply(func(sub *DataArray) (*DataArray, error) {
			return sub.reduceRaw(k, ReduceOpts{Dim: []string{g.dim}, KeepAttrs: opts.KeepAttrs},
				ndarray.ReduceOptions{OutDType: v.DType()})
		}, opts)
	}
	// 非数値型は位置による選択
	return g.apply(func(sub *DataArray) (*DataArray, error) {
		n, err := sub.DimSize(g.dim)
		if err != nil {
			return nil, err
		}
		i := 0
		if last {
			i = n - 1
		}
		res, err := sub.IselAt(g.dim, i)
		if err != nil {
			return nil, err
		}
		if !opts.KeepAttrs {
			res.attrs = nil
		}
		return res, nil
	}, opts)
}

// selectKernel はfirst/last選択をカーネルとして表現する。
func selectKernel(last, skipna bool) ndarray.Kernel {
	return func(values []float64) float64 {
		if last {
			for i := len(values) - 1; i >= 0; i-- {
				if !skipna || !math.IsNaN(values[i]) {
					return values[i]
				}
			}
		} else {
			for _, v := range values {
				if !skipna || !math.IsNaN(v) {
					return v
				}
			}
		}
		return math.NaN()
	}
}

// apply はグループごとの結果を計算し、新しいキー次元で積み上げる。
// 観測を持たない時間バケットは、結果型を昇格させたうえで欠損値
// センチネルで充填される。
func (g *DataArrayGroupBy) apply(fn func(*DataArray) (*DataArray, error), opts GroupByOpts) (*DataArray, error) {
	results := make([]*DataArray, len(g.groups))
	var template *DataArray
	empty := 0
	for i, idx := range g.groups {
		if len(idx) == 0 {
			empty++
			continue
		}
		sub, err := g.obj.Isel(g.dim, idx)
		if err != nil {
			return nil, err
		}
		res, err := fn(sub)
		if err != nil {
			return nil, err
		}
		results[i] = res
		if template == nil {
			template = res
		}
	}
	if template == nil {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	if empty > 0 {
		g.logger.Debug("empty buckets filled with missing-value sentinel",
			log.OperationKey, log.OperationGroupBy,
			log.EmptyGroupsKey, empty,
		)
	}

	outDType := template.values.DType()
	if empty > 0 {
		outDType, _ = dtype.Promote(outDType)
	}
	stackIn := make([]*ndarray.Array, len(results))
	for i, r := range results {
		if r == nil {
			fill, err := ndarray.FullMissing(outDType, template.values.Shape()...)
			if err != nil {
				return nil, err
			}
			stackIn[i] = fill
			continue
		}
		v := r.values
		if v.DType() != outDType {
			promoted, err := dtype.PromoteArray(v)
			if err != nil {
				return nil, err
			}
			v = promoted
		}
		stackIn[i] = v
	}
	stacked, err := ndarray.Stack(stackIn)
	if err != nil {
		return nil, err
	}

	outDims := append([]string{g.keyName}, template.dims...)
	out := &DataArray{
		name:   g.obj.name,
		dims:   outDims,
		values: stacked,
		coords: filterCoords(template.coords, outDims),
	}
	if opts.KeepAttrs {
		out.attrs = copyAttrs(g.obj.attrs)
	}
	keyCoord := &DataArray{name: g.keyName, dims: []string{g.keyName}, values: g.keys}
	if err := out.SetCoord(g.keyName, keyCoord); err != nil {
		return nil, err
	}
	return out, nil
}

// ===========================================================================
//
//	Dataset向けグルーピング
//
// ===========================================================================

// DatasetGroupBy はDatasetの1次元をキー配列で分割したグルーピングです。
type DatasetGroupBy struct {
	obj     *Dataset
	dim     string
	keyName string
	keys    *ndarray.Array
	groups  [][]int
	squeeze bool
	logger  log.Logger
}

// GroupBy は名前で参照した変数の一意な値でDatasetをグルーピングする。
func (ds *Dataset) GroupBy(group string, squeeze bool) (*DatasetGroupBy, error) {
	v, err := ds.Var(group)
	if err != nil {
		return nil, err
	}
	return ds.GroupByArray(v, squeeze)
}

// GroupByArray は1次元のキー配列の一意な値でDatasetをグルーピングする。
func (ds *Dataset) GroupByArray(group *DataArray, squeeze bool) (*DatasetGroupBy, error) {
	sizes := ds.DimSizes()
	all := make([]string, 0, len(sizes))
	for _, name := range ds.names {
		for _, d := range ds.vars[name].dims {
			if !containsStr(all, d) {
				all = append(all, d)
			}
		}
	}
	dim, err := groupDim(group, all)
	if err != nil {
		return nil, err
	}
	if group.values.Len() != sizes[dim] {
		return nil, errors.NewShapeMismatchError("GroupBy", dim, sizes[dim], group.values.Len())
	}

	keys, groups := partitionByValue(group.values)
	keyName := group.name
	if keyName == "" {
		keyName = "group"
	}
	gb := &DatasetGroupBy{
		obj:     ds,
		dim:     dim,
		keyName: keyName,
		keys:    keys,
		groups:  groups,
		squeeze: squeeze,
		logger:  log.GetLogger().With(log.ComponentKey, "dimarray", log.ContainerKey, "Dataset"),
	}
	gb.logger.Debug("partition built",
		log.OperationKey, log.OperationGroupBy,
		log.DimKey, dim,
		log.SamplesKey, sizes[dim],
		log.GroupsKey, len(groups),
		log.VariablesKey, ds.NumVars(),
	)
	return gb, nil
}

// Len はグループ数を返す。
func (g *DatasetGroupBy) Len() int { return len(g.groups) }

// Keys は一意なキー値の1次元配列を返す。
func (g *DatasetGroupBy) Keys() *ndarray.Array { return g.keys }

// Aggregate は集約指定を変数ごと・グループごとに適用する。
//
// 分割次元を持たない変数はそのまま結果に引き継がれる。名前付きの数値
// 集約では数値型でない変数は黙って除外される（first/lastは要素選択の
// ため全型が対象）。
func (g *DatasetGroupBy) Aggregate(how Aggregation, opts GroupByOpts) (*Dataset, error) {
	selection := false
	if h, ok := how.(NamedAggregation); ok {
		name := string(h)
		if name == "first" || name == "last" {
			selection = true
		} else if _, err := ArrayAggregation(name); err != nil {
			return nil, err
		}
	}

	out := NewDataset()
	if opts.KeepAttrs {
		out.attrs = copyAttrs(g.obj.attrs)
	}
	for _, name := range g.obj.names {
		v := g.obj.vars[name]
		if !dims.Contains(v.dims, g.dim) {
			if err := out.Set(name, v); err != nil {
				return nil, err
			}
			continue
		}
		if !selection && !v.values.DType().IsNumeric() {
			// 数値集約の対象外の変数は黙って除外する
			continue
		}
		sub := &DataArrayGroupBy{
			obj:     v,
			dim:     g.dim,
			keyName: g.keyName,
			keys:    g.keys,
			groups:  g.groups,
			squeeze: g.squeeze,
			logger:  g.logger,
		}
		res, err := sub.Aggregate(how, opts)
		if err != nil {
			return nil, err
		}
		if err := out.Set(name, res); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Reduce は任意の生集約関数を数値型変数ごとに適用する。
func (g *DatasetGroupBy) Reduce(k ndarray.Kernel, opts GroupByOpts) (result *Dataset, err error) {
	defer errors.Recover(&err, "DatasetGroupBy.Reduce")
	return g.Aggregate(CustomAggregation(k), opts)
}

// Sum はグループごとの総和。
func (g *DatasetGroupBy) Sum(opts GroupByOpts) (*Dataset, error) {
	return g.Aggregate(NamedAggregation("sum"), opts)
}

// Mean はグループごとの算術平均。
func (g *DatasetGroupBy) Mean(opts GroupByOpts) (*Dataset, error) {
	return g.Aggregate(NamedAggregation("mean"), opts)
}

// First はグループ内の最初の要素を選択する。
func (g *DatasetGroupBy) First(skipna *bool) (*Dataset, error) {
	return g.Aggregate(NamedAggregation("first"), GroupByOpts{SkipNA: skipna})
}

// Last はグループ内の最後の要素を選択する。
func (g *DatasetGroupBy) Last(skipna *bool) (*Dataset, error) {
	return g.Aggregate(NamedAggregation("last"), GroupByOpts{SkipNA: skipna})
}
