package dimarray

import (
	"sort"

	"github.com/YuminosukeSato/dimarray/core/dims"
	"github.com/YuminosukeSato/dimarray/ndarray"
	"github.com/YuminosukeSato/dimarray/pkg/errors"
)

// ReduceOpts は合成された集約メソッドの共通キーワード引数です。
type ReduceOpts struct {
	// Dim は畳み込む次元名。Axisと同時指定はできない。
	Dim []string
	// Axis は畳み込む軸位置。Dimと同時指定はできない。
	// DimもAxisも指定しない場合は全次元を畳み込む。
	Axis []int
	// SkipNA は欠損値(NaN)を無視するか。nilの場合は値型に依存する
	// デフォルト（浮動小数点型のみ無視する）に委ねる。
	SkipNA *bool
	// KeepAttrs が真の場合、結果は入力の属性を引き継ぐ。
	KeepAttrs bool
}

// SkipNA はReduceOpts.SkipNAに渡すboolポインタを作るヘルパ。
func SkipNA(v bool) *bool { return &v }

// ReductionSpec は生の集約関数とその能力フラグの不変な記述子です。
// メソッド合成時に一度だけ消費され、呼び出し時には使われない。
type ReductionSpec struct {
	// Name は合成される操作名（"sum"など）
	Name string
	// Kernel は生の集約関数
	Kernel ndarray.Kernel
	// SupportsSkipNA は欠損値スキップ意味論をサポートするか
	SupportsSkipNA bool
	// NumericOnly はCollection側で数値型変数のみに制限するか
	NumericOnly bool
	// Orderable は順序だけで定義され、時刻型の値にも適用できるか
	Orderable bool
	// OutDType は結果の要素型
	OutDType ndarray.DType
}

// 合成対象の集約テーブル。xray/pandasの標準的な集約群に対応する。
var reductionTable = []ReductionSpec{
	{Name: "all", Kernel: ndarray.All, SupportsSkipNA: false, NumericOnly: false, OutDType: ndarray.Bool},
	{Name: "any", Kernel: ndarray.Any, SupportsSkipNA: false, NumericOnly: false, OutDType: ndarray.Bool},
	{Name: "argmax", Kernel: ndarray.ArgMax, SupportsSkipNA: false, NumericOnly: true, OutDType: ndarray.Int64},
	{Name: "argmin", Kernel: ndarray.ArgMin, SupportsSkipNA: false, NumericOnly: true, OutDType: ndarray.Int64},
	{Name: "max", Kernel: ndarray.Max, SupportsSkipNA: true, NumericOnly: false, Orderable: true, OutDType: ndarray.Float64},
	{Name: "mean", Kernel: ndarray.Mean, SupportsSkipNA: true, NumericOnly: true, OutDType: ndarray.Float64},
	{Name: "median", Kernel: ndarray.Median, SupportsSkipNA: true, NumericOnly: true, OutDType: ndarray.Float64},
	{Name: "min", Kernel: ndarray.Min, SupportsSkipNA: true, NumericOnly: false, Orderable: true, OutDType: ndarray.Float64},
	{Name: "prod", Kernel: ndarray.Prod, SupportsSkipNA: true, NumericOnly: true, OutDType: ndarray.Float64},
	{Name: "std", Kernel: ndarray.Std, SupportsSkipNA: true, NumericOnly: true, OutDType: ndarray.Float64},
	{Name: "sum", Kernel: ndarray.Sum, SupportsSkipNA: true, NumericOnly: true, OutDType: ndarray.Float64},
	{Name: "var", Kernel: ndarray.Var, SupportsSkipNA: true, NumericOnly: true, OutDType: ndarray.Float64},
}

// ArrayReduceOp はDataArray向けに合成された集約操作です。
type ArrayReduceOp func(da *DataArray, opts ReduceOpts) (*DataArray, error)

// DatasetReduceOp はDataset向けに合成された集約操作です。
// numeric_onlyフラグは合成時に束縛済みで、呼び出し時の引数には現れない。
type DatasetReduceOp func(ds *Dataset, opts ReduceOpts) (*Dataset, error)

var (
	arrayOps   map[string]ArrayReduceOp
	datasetOps map[string]DatasetReduceOp
)

// 集約メソッドの合成はパッケージ初期化時に一度だけ行う。
// 同じテーブルから同じフラグで合成された操作は決定的で、対象の状態を
// 読む以外の副作用を持たない。
func init() {
	arrayOps = make(map[string]ArrayReduceOp, len(reductionTable))
	datasetOps = make(map[string]DatasetReduceOp, len(reductionTable))
	for _, spec := range reductionTable {
		arrayOps[spec.Name] = synthesizeArrayOp(spec)
		datasetOps[spec.Name] = synthesizeDatasetOp(spec)
	}
}

// synthesizeArrayOp は記述子からDataArray向けの束縛済み操作を生成する。
func synthesizeArrayOp(spec ReductionSpec) ArrayReduceOp {
	return func(da *DataArray, opts ReduceOpts) (*DataArray, error) {
		if opts.SkipNA != nil && !spec.SupportsSkipNA {
			return nil, errors.Newf("dimarray: aggregation %q does not support skipna", spec.Name)
		}
		return da.reduceSpec(spec, opts)
	}
}

// synthesizeDatasetOp は記述子からDataset向けの束縛済み操作を生成する。
// 集約が扱えない型の変数は失敗ではなく黙って結果から除外される。
func synthesizeDatasetOp(spec ReductionSpec) DatasetReduceOp {
	return func(ds *Dataset, opts ReduceOpts) (*Dataset, error) {
		if opts.SkipNA != nil && !spec.SupportsSkipNA {
			return nil, errors.Newf("dimarray: aggregation %q does not support skipna", spec.Name)
		}
		if len(opts.Axis) > 0 {
			return nil, errors.Newf("dimarray: Dataset reductions take dimension names, not axis positions")
		}
		if err := ds.validateDims(opts.Dim); err != nil {
			return nil, err
		}

		out := NewDataset()
		if opts.KeepAttrs {
			out.attrs = copyAttrs(ds.attrs)
		}
		for _, name := range ds.names {
			v := ds.vars[name]
			dt := v.values.DType()
			switch {
			case dt.IsNumeric():
			case !spec.NumericOnly && spec.Orderable && dt == ndarray.Time:
				// 順序だけで定義される集約（min/max）は時刻型変数も対象
			default:
				// NumericOnlyな集約、および集約カーネルで扱えない型は除外
				continue
			}
			varDims := intersect(opts.Dim, v.dims)
			if len(opts.Dim) > 0 && len(varDims) == 0 {
				// 対象次元を持たない変数はそのまま残す
				if err := out.Set(name, v); err != nil {
					return nil, err
				}
				continue
			}
			res, err := v.reduceSpec(spec, ReduceOpts{Dim: varDims, SkipNA: opts.SkipNA, KeepAttrs: opts.KeepAttrs})
			if err != nil {
				return nil, err
			}
			if err := out.Set(name, res); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
}

// reduceSpec は記述子に従って配列を畳み込む。時刻型の配列はOrderableな
// 集約のみ受け付け、結果も時刻型になる。
func (da *DataArray) reduceSpec(spec ReductionSpec, opts ReduceOpts) (*DataArray, error) {
	dt := da.values.DType()
	if dt == ndarray.Time && !spec.Orderable {
		return nil, errors.Newf("dimarray: aggregation %q is not defined for time values", spec.Name)
	}
	skip := false
	if spec.SupportsSkipNA {
		if opts.SkipNA != nil {
			skip = *opts.SkipNA
		} else {
			// 型依存デフォルト: 欠損値センチネルを持つ型のみスキップする
			skip = dt.IsFloat() || dt == ndarray.Time
		}
	}
	out := spec.OutDType
	if dt == ndarray.Time {
		out = ndarray.Time
	}
	return da.reduceRaw(spec.Kernel, opts, ndarray.ReduceOptions{
		SkipNA:       skip,
		PropagateNaN: spec.SupportsSkipNA && !skip,
		OutDType:     out,
	})
}

// Reduce は任意の生集約関数kで配列を畳み込む。合成済みの名前付き
// 集約と同じ次元解決・欠損値ポリシーが適用され、結果はfloat64になる。
func (da *DataArray) Reduce(k ndarray.Kernel, opts ReduceOpts) (*DataArray, error) {
	skip := da.values.DType().IsFloat()
	if opts.SkipNA != nil {
		skip = *opts.SkipNA
	}
	return da.reduceRaw(k, opts, ndarray.ReduceOptions{
		SkipNA:       skip,
		PropagateNaN: !skip,
		OutDType:     ndarray.Float64,
	})
}

func (da *DataArray) reduceRaw(k ndarray.Kernel, opts ReduceOpts, ropts ndarray.ReduceOptions) (*DataArray, error) {
	if len(opts.Dim) > 0 && len(opts.Axis) > 0 {
		return nil, errors.WithStack(errors.ErrDimAxisExclusive)
	}
	axes := opts.Axis
	if len(opts.Dim) > 0 {
		var err error
		axes, err = da.AxisNums(opts.Dim)
		if err != nil {
			return nil, err
		}
	}
	res, err := ndarray.Reduce(da.values, axes, k, ropts)
	if err != nil {
		return nil, err
	}

	// 畳み込まれなかった次元を入力順のまま残す
	reduced := make(map[int]bool, len(axes))
	for _, ax := range axes {
		reduced[ax] = true
	}
	var outDims []string
	if len(axes) > 0 {
		for i, d := range da.dims {
			if !reduced[i] {
				outDims = append(outDims, d)
			}
		}
	}

	out := &DataArray{
		name:   da.name,
		dims:   outDims,
		values: res,
		coords: filterCoords(da.coords, outDims),
	}
	if opts.KeepAttrs {
		out.attrs = copyAttrs(da.attrs)
	}
	return out, nil
}

// Aggregation lookup -------------------------------------------------------

// AggregationNames は合成済みの集約名の一覧をソート順で返す。
func AggregationNames() []string {
	names := make([]string, 0, len(arrayOps))
	for name := range arrayOps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ArrayAggregation は名前からDataArray向けの合成済み操作を引く。
// 未知の名前はUnknownAggregationError。
func ArrayAggregation(name string) (ArrayReduceOp, error) {
	op, ok := arrayOps[name]
	if !ok {
		return nil, errors.NewUnknownAggregationError(name, AggregationNames())
	}
	return op, nil
}

// DatasetAggregation は名前からDataset向けの合成済み操作を引く。
func DatasetAggregation(name string) (DatasetReduceOp, error) {
	op, ok := datasetOps[name]
	if !ok {
		return nil, errors.NewUnknownAggregationError(name, AggregationNames())
	}
	return op, nil
}

// 呼び出し側の利便のため、登録済み操作を名前で引く薄いメソッドを用意する。

// Sum は総和を計算する。
func (da *DataArray) Sum(opts ReduceOpts) (*DataArray, error) { return arrayOps["sum"](da, opts) }

// Mean は算術平均を計算する。
func (da *DataArray) Mean(opts ReduceOpts) (*DataArray, error) { return arrayOps["mean"](da, opts) }

// Min は最小値を計算する。
func (da *DataArray) Min(opts ReduceOpts) (*DataArray, error) { return arrayOps["min"](da, opts) }

// Max は最大値を計算する。
func (da *DataArray) Max(opts ReduceOpts) (*DataArray, error) { return arrayOps["max"](da, opts) }

// Prod は総積を計算する。
func (da *DataArray) Prod(opts ReduceOpts) (*DataArray, error) { return arrayOps["prod"](da, opts) }

// Std は標準偏差を計算する。
func (da *DataArray) Std(opts ReduceOpts) (*DataArray, error) { return arrayOps["std"](da, opts) }

// Var は分散を計算する。
func (da *DataArray) Var(opts ReduceOpts) (*DataArray, error) { return arrayOps["var"](da, opts) }

// Median は中央値を計算する。
func (da *DataArray) Median(opts ReduceOpts) (*DataArray, error) { return arrayOps["median"](da, opts) }

// ArgMin は最小値の位置を計算する。
func (da *DataArray) ArgMin(opts ReduceOpts) (*DataArray, error) { return arrayOps["argmin"](da, opts) }

// ArgMax は最大値の位置を計算する。
func (da *DataArray) ArgMax(opts ReduceOpts) (*DataArray, error) { return arrayOps["argmax"](da, opts) }

// All は全要素が真かを計算する。
func (da *DataArray) All(opts ReduceOpts) (*DataArray, error) { return arrayOps["all"](da, opts) }

// Any はいずれかの要素が真かを計算する。
func (da *DataArray) Any(opts ReduceOpts) (*DataArray, error) { return arrayOps["any"](da, opts) }

// Sum は数値型変数それぞれの総和を計算する。
func (ds *Dataset) Sum(opts ReduceOpts) (*Dataset, error) { return datasetOps["sum"](ds, opts) }

// Mean は数値型変数それぞれの算術平均を計算する。
func (ds *Dataset) Mean(opts ReduceOpts) (*Dataset, error) { return datasetOps["mean"](ds, opts) }

// Min は数値型変数それぞれの最小値を計算する。
func (ds *Dataset) Min(opts ReduceOpts) (*Dataset, error) { return datasetOps["min"](ds, opts) }

// Max は数値型変数それぞれの最大値を計算する。
func (ds *Dataset) Max(opts ReduceOpts) (*Dataset, error) { return datasetOps["max"](ds, opts) }

// Std は数値型変数それぞれの標準偏差を計算する。
func (ds *Dataset) Std(opts ReduceOpts) (*Dataset, error) { return datasetOps["std"](ds, opts) }

// Variance は数値型変数それぞれの分散を計算する。VarはDatasetでは変数
// アクセサに使われているため、集約側はこの名前になる。
func (ds *Dataset) Variance(opts ReduceOpts) (*Dataset, error) { return datasetOps["var"](ds, opts) }

// ヘルパ ---------------------------------------------------------------

func (ds *Dataset) validateDims(names []string) error {
	if len(names) == 0 {
		return nil
	}
	sizes := ds.DimSizes()
	all := make([]string, 0, len(sizes))
	for d := range sizes {
		all = append(all, d)
	}
	sort.Strings(all)
	for _, d := range names {
		if _, ok := sizes[d]; !ok {
			return errors.NewDimensionNotFoundError(d, all)
		}
	}
	return nil
}

func intersect(want, have []string) []string {
	if len(want) == 0 {
		return nil
	}
	var out []string
	for _, d := range want {
		if dims.Contains(have, d) {
			out = append(out, d)
		}
	}
	return out
}
