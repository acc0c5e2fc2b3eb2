package ndarray

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/dimarray/core/parallel"
	"github.com/YuminosukeSato/dimarray/pkg/errors"
)

// Kernel は1次元のfloat64ベクトルをスカラーへ集約する生の集約関数です。
// 欠損値の扱いはReduce側が済ませるため、カーネル自体はNaN非対応でよい。
// 空スライスが渡されることはない。
type Kernel func(values []float64) float64

// gonumに委譲する集約カーネル群。
var (
	// Sum は総和
	Sum Kernel = floats.Sum
	// Prod は総積
	Prod Kernel = floats.Prod
	// Min は最小値
	Min Kernel = floats.Min
	// Max は最大値
	Max Kernel = floats.Max
	// Mean は算術平均
	Mean Kernel = func(values []float64) float64 {
		return stat.Mean(values, nil)
	}
	// Var は母分散（ddof=0）
	Var Kernel = func(values []float64) float64 {
		n := len(values)
		if n == 1 {
			return 0
		}
		// gonumのVarianceは標本分散(n-1)なので母分散へスケールする
		return stat.Variance(values, nil) * float64(n-1) / float64(n)
	}
	// Std は母標準偏差（ddof=0）
	Std Kernel = func(values []float64) float64 {
		return math.Sqrt(Var(values))
	}
	// Median は中央値
	Median Kernel = func(values []float64) float64 {
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		n := len(sorted)
		if n%2 == 1 {
			return sorted[n/2]
		}
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	// ArgMin は最小値の位置
	ArgMin Kernel = func(values []float64) float64 {
		return float64(floats.MinIdx(values))
	}
	// ArgMax は最大値の位置
	ArgMax Kernel = func(values []float64) float64 {
		return float64(floats.MaxIdx(values))
	}
	// All は全要素が非ゼロなら1
	All Kernel = func(values []float64) float64 {
		for _, v := range values {
			if v == 0 {
				return 0
			}
		}
		return 1
	}
	// Any はいずれかの要素が非ゼロなら1
	Any Kernel = func(values []float64) float64 {
		for _, v := range values {
			if v != 0 {
				return 1
			}
		}
		return 0
	}
)

// ReduceOptions はReduceの欠損値処理と結果型を制御します。
type ReduceOptions struct {
	// SkipNA が真の場合、集約前にNaNを取り除く。全要素がNaNの場合の結果はNaN。
	SkipNA bool
	// PropagateNaN が真かつSkipNAが偽の場合、NaNを含むセルの結果はNaNになる。
	PropagateNaN bool
	// OutDType は結果配列の要素型。
	OutDType DType
}

// この要素数を超える出力はワーカーに分割して集約する
const parallelReduceThreshold = 4096

// Reduce は指定した軸に沿ってカーネルkを適用し、軸を畳み込んだ配列を返す。
// axesが空の場合は全軸を畳み込み、ランク0のスカラー配列を返す。
// 数値型（Bool, Int64, Float64）に加えてTimeを受け付け、Timeはエポック
// ナノ秒をfloat64経由で集約する（NaTはNaN扱い。float64の仮数部を超える
// 時刻では下位ナノ秒が丸められる）。String配列はエラー。
func Reduce(a *Array, axes []int, k Kernel, opts ReduceOptions) (*Array, error) {
	if !a.dtype.IsNumeric() && a.dtype != Time {
		return nil, errors.Newf("ndarray: cannot reduce dtype %s", a.dtype)
	}

	rank := len(a.shape)
	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = i
		}
	}

	reduced := make(map[int]bool, len(axes))
	for _, ax := range axes {
		if ax < 0 || ax >= rank {
			return nil, errors.Newf("ndarray: axis %d out of range for rank %d", ax, rank)
		}
		reduced[ax] = true
	}

	var keepAxes []int
	var outShape []int
	for i, s := range a.shape {
		if !reduced[i] {
			keepAxes = append(keepAxes, i)
			outShape = append(outShape, s)
		}
	}

	srcStrides := strides(a.shape)

	// 畳み込む軸の全組み合わせについて、ソース内オフセットを前計算する
	reduceSize := 1
	var redAxes []int
	for ax := range reduced {
		redAxes = append(redAxes, ax)
	}
	sort.Ints(redAxes)
	for _, ax := range redAxes {
		reduceSize *= a.shape[ax]
	}
	redOffsets := make([]int, reduceSize)
	for j := 0; j < reduceSize; j++ {
		rem := j
		off := 0
		for i := len(redAxes) - 1; i >= 0; i-- {
			ax := redAxes[i]
			off += (rem % a.shape[ax]) * srcStrides[ax]
			rem /= a.shape[ax]
		}
		redOffsets[j] = off
	}

	out := newEmpty(opts.OutDType, outShape)
	outSize := sizeOf(outShape)
	outStrides := strides(outShape)

	parallel.ParallelizeWithThreshold(outSize, parallelReduceThreshold, func(start, end int) {
		buf := make([]float64, reduceSize)
		for cell := start; cell < end; cell++ {
			base := 0
			rem := cell
			for i := range keepAxes {
				base += (rem / outStrides[i]) * srcStrides[keepAxes[i]]
				rem %= outStrides[i]
			}
			for j, off := range redOffsets {
				buf[j] = a.reduceFloatAt(base + off)
			}
			out.setReduced(cell, aggregate(buf, k, opts))
		}
	})
	return out, nil
}

// aggregate は1セル分の値列に欠損値ポリシーを適用してカーネルを呼ぶ。
func aggregate(values []float64, k Kernel, opts ReduceOptions) float64 {
	if opts.SkipNA {
		values = errors.DropMissing(values)
	} else if opts.PropagateNaN && errors.HasMissing(values) {
		return nan()
	}
	if len(values) == 0 {
		return nan()
	}
	return k(values)
}

// reduceFloatAt は集約バッファ用の値変換。TimeはNaTをNaNへ写す。
func (a *Array) reduceFloatAt(i int) float64 {
	if a.dtype == Time {
		if a.ints[i] == NaT {
			return nan()
		}
		return float64(a.ints[i])
	}
	return a.Float64At(i)
}

// setReduced は集約結果vを出力dtypeへ変換して書き込む。
func (a *Array) setReduced(i int, v float64) {
	switch a.dtype {
	case Float64:
		a.floats[i] = v
	case Int64:
		a.ints[i] = int64(v)
	case Bool:
		a.bools[i] = v != 0
	case Time:
		if isNaN(v) {
			a.ints[i] = NaT
		} else {
			a.ints[i] = int64(v)
		}
	}
}
