package dimarray

import (
	"github.com/YuminosukeSato/dimarray/freq"
	"github.com/YuminosukeSato/dimarray/ndarray"
	"github.com/YuminosukeSato/dimarray/pkg/errors"
	"github.com/YuminosukeSato/dimarray/pkg/log"
)

// resampleDim はリサンプリング中だけ使われる合成次元名。既存の次元と
// 衝突しないよう予約されており、結果を返す前に元の時間次元名へ
// 改名される。
const resampleDim = "__resample__"

// ResampleOpts は時間バケット集約のオプションです。
type ResampleOpts struct {
	// Closed はバケット区間のどちら側を閉じるか。
	Closed freq.Side
	// Label はバケットのラベルに区間のどちら側の端点を使うか。
	Label freq.Side
	// Base は固定頻度のバケット境界をずらすオフセット（頻度の基本
	// 単位の個数）。
	Base int
	// SkipNA は欠損値(NaN)を無視するか。nilは型依存デフォルト。
	SkipNA *bool
	// KeepAttrs が真の場合、結果は入力の属性を引き継ぐ。
	KeepAttrs bool
}

// Resample は時間次元の座標を頻度文字列に従ってバケット化し、バケット
// ごとにhowで集約する。howがnilの場合は平均が使われる。結果の時間次元は
// 元の次元名のまま、座標はバケットのラベル時刻に置き換わる。
//
// 観測を持たないバケットは結果から消えず、要素型を昇格させたうえで
// 欠損値センチネルで充填される。
func (da *DataArray) Resample(freqStr, dim string, how Aggregation, opts ResampleOpts) (*DataArray, error) {
	coord, ok := da.Coord(dim)
	if !ok {
		return nil, errors.Newf("dimarray: resample requires a coordinate for dimension %q", dim)
	}
	gb, err := resampleGroupBy(da, coord, dim, freqStr, opts)
	if err != nil {
		return nil, err
	}
	res, err := gb.Aggregate(defaultMean(how), GroupByOpts{SkipNA: opts.SkipNA, KeepAttrs: opts.KeepAttrs})
	if err != nil {
		return nil, err
	}
	return res.RenameDims(map[string]string{resampleDim: dim})
}

// Resample は名前で参照した時間変数を頻度文字列に従ってバケット化し、
// 同じ次元を共有する全変数をバケットごとに集約する。集約後、時間変数は
// バケットのラベル時刻に置き換わる。
func (ds *Dataset) Resample(freqStr, dim string, how Aggregation, opts ResampleOpts) (*Dataset, error) {
	coord, err := ds.Var(dim)
	if err != nil {
		return nil, err
	}
	if coord.NDim() != 1 || coord.dims[0] != dim {
		return nil, errors.Newf("dimarray: resample variable %q must be 1-dimensional along %q", dim, dim)
	}

	// 時間変数自体は集約対象から外し、後でラベル時刻として戻す
	src := NewDataset()
	src.attrs = copyAttrs(ds.attrs)
	for _, name := range ds.names {
		if name == dim {
			continue
		}
		if err := src.Set(name, ds.vars[name]); err != nil {
			return nil, err
		}
	}

	agb, err := resampleGroupBy(coord, coord, dim, freqStr, opts)
	if err != nil {
		return nil, err
	}
	gb := &DatasetGroupBy{
		obj:     src,
		dim:     dim,
		keyName: resampleDim,
		keys:    agb.keys,
		groups:  agb.groups,
		logger:  log.GetLogger().With(log.ComponentKey, "dimarray", log.ContainerKey, "Dataset"),
	}
	res, err := gb.Aggregate(defaultMean(how), GroupByOpts{SkipNA: opts.SkipNA, KeepAttrs: opts.KeepAttrs})
	if err != nil {
		return nil, err
	}
	out, err := res.RenameDims(map[string]string{resampleDim: dim})
	if err != nil {
		return nil, err
	}
	labels := &DataArray{name: dim, dims: []string{dim}, values: agb.keys}
	if err := out.Set(dim, labels); err != nil {
		return nil, err
	}
	return out, nil
}

// resampleGroupBy は時間座標からバケットラベルと分割を計算し、合成次元で
// 積み上げるDataArrayGroupByを組み立てる。
func resampleGroupBy(obj, coord *DataArray, dim, freqStr string, opts ResampleOpts) (*DataArrayGroupBy, error) {
	if coord.values.DType() != ndarray.Time {
		return nil, errors.NewUnsupportedGroupKeyError("Resample", coord.values.DType().String())
	}
	b, err := freq.NewBucketer(freqStr, opts.Closed, opts.Label, opts.Base)
	if err != nil {
		return nil, err
	}
	n := coord.values.Size()
	nanos := make([]int64, n)
	for i := 0; i < n; i++ {
		nanos[i] = coord.values.TimeNanosAt(i)
	}
	labels, groups, err := b.Bucket(nanos)
	if err != nil {
		return nil, err
	}
	keys, err := ndarray.NewTimeNanos(labels, len(labels))
	if err != nil {
		return nil, err
	}

	empty := 0
	for _, idx := range groups {
		if len(idx) == 0 {
			empty++
		}
	}
	logger := log.GetLogger().With(log.ComponentKey, "dimarray", log.ContainerKey, "DataArray")
	logger.Debug("time buckets built",
		log.OperationKey, log.OperationResample,
		log.DimKey, dim,
		log.FrequencyKey, freqStr,
		log.SamplesKey, n,
		log.GroupsKey, len(groups),
		log.EmptyGroupsKey, empty,
	)
	return &DataArrayGroupBy{
		obj:     obj,
		dim:     dim,
		keyName: resampleDim,
		keys:    keys,
		groups:  groups,
		logger:  logger,
	}, nil
}

func defaultMean(how Aggregation) Aggregation {
	if how == nil {
		return NamedAggregation("mean")
	}
	return how
}
