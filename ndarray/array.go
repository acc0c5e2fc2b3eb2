// Package ndarray は次元名ラベル層が消費する密なN次元数値エンジンを提供します。
// 値バッファは行優先（C順序）の連続メモリで保持し、軸単位の集約カーネルは
// gonumのfloats/statに委譲します。
package ndarray

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dimarray/pkg/errors"
)

// Array は行優先レイアウトの密なN次元配列です。
// dtypeに応じたスライスが一つだけ使用されます。ランク0（スカラー）は
// 空のshapeと長さ1のバッファで表現します。
type Array struct {
	dtype DType
	shape []int

	floats []float64
	ints   []int64 // Int64およびTime（エポックナノ秒）
	bools  []bool
	strs   []string
}

func sizeOf(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func strides(shape []int) []int {
	st := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= shape[i]
	}
	return st
}

func newEmpty(dt DType, shape []int) *Array {
	a := &Array{dtype: dt, shape: append([]int(nil), shape...)}
	n := sizeOf(shape)
	switch dt {
	case Float64:
		a.floats = make([]float64, n)
	case Int64, Time:
		a.ints = make([]int64, n)
	case Bool:
		a.bools = make([]bool, n)
	case String:
		a.strs = make([]string, n)
	}
	return a
}

func validateShape(op string, n int, shape []int) error {
	for _, s := range shape {
		if s < 0 {
			return errors.Newf("ndarray: %s: negative dimension size %d", op, s)
		}
	}
	if want := sizeOf(shape); want != n {
		return errors.NewShapeMismatchError(op, "", want, n)
	}
	return nil
}

// NewFloat64 はfloat64データから配列を作成する。
// shapeを省略した場合は長さ1のデータをランク0のスカラーとして扱う。
func NewFloat64(data []float64, shape ...int) (*Array, error) {
	if err := validateShape("NewFloat64", len(data), shape); err != nil {
		return nil, err
	}
	return &Array{dtype: Float64, shape: append([]int(nil), shape...), floats: append([]float64(nil), data...)}, nil
}

// NewInt64 はint64データから配列を作成する。
func NewInt64(data []int64, shape ...int) (*Array, error) {
	if err := validateShape("NewInt64", len(data), shape); err != nil {
		return nil, err
	}
	return &Array{dtype: Int64, shape: append([]int(nil), shape...), ints: append([]int64(nil), data...)}, nil
}

// NewBool は真偽値データから配列を作成する。
func NewBool(data []bool, shape ...int) (*Array, error) {
	if err := validateShape("NewBool", len(data), shape); err != nil {
		return nil, err
	}
	return &Array{dtype: Bool, shape: append([]int(nil), shape...), bools: append([]bool(nil), data...)}, nil
}

// NewString は文字列データから配列を作成する。
func NewString(data []string, shape ...int) (*Array, error) {
	if err := validateShape("NewString", len(data), shape); err != nil {
		return nil, err
	}
	return &Array{dtype: String, shape: append([]int(nil), shape...), strs: append([]string(nil), data...)}, nil
}

// NewTime はtime.Timeデータから時刻型配列を作成する。
// 内部表現はエポックナノ秒。ゼロ値のtime.TimeはNaTとして保持される。
func NewTime(data []time.Time, shape ...int) (*Array, error) {
	if err := validateShape("NewTime", len(data), shape); err != nil {
		return nil, err
	}
	nanos := make([]int64, len(data))
	for i, t := range data {
		if t.IsZero() {
			nanos[i] = NaT
		} else {
			nanos[i] = t.UnixNano()
		}
	}
	return &Array{dtype: Time, shape: append([]int(nil), shape...), ints: nanos}, nil
}

// NewTimeNanos はエポックナノ秒のスライスから時刻型配列を作成する。
func NewTimeNanos(nanos []int64, shape ...int) (*Array, error) {
	if err := validateShape("NewTimeNanos", len(nanos), shape); err != nil {
		return nil, err
	}
	return &Array{dtype: Time, shape: append([]int(nil), shape...), ints: append([]int64(nil), nanos...)}, nil
}

// FullFloat64 は全要素がvalueのfloat64配列を作成する。
func FullFloat64(value float64, shape ...int) *Array {
	a := newEmpty(Float64, shape)
	for i := range a.floats {
		a.floats[i] = value
	}
	return a
}

// FullMissing はdtypeの正準な欠損値センチネルで埋めた配列を作成する。
// Float64はNaN、TimeはNaT、Stringは空文字列。Int64/Boolは欠損値を
// 表現できないため、呼び出し側が先に型昇格を済ませる必要がある。
func FullMissing(dt DType, shape ...int) (*Array, error) {
	switch dt {
	case Float64:
		return FullFloat64(nan(), shape...), nil
	case Time:
		a := newEmpty(Time, shape)
		for i := range a.ints {
			a.ints[i] = NaT
		}
		return a, nil
	case String:
		return newEmpty(String, shape), nil
	default:
		return nil, errors.Newf("ndarray: dtype %s cannot represent missing values; promote first", dt)
	}
}

// FromMatrix はgonumの2次元行列からfloat64配列を作成する。
func FromMatrix(m mat.Matrix) *Array {
	r, c := m.Dims()
	a := newEmpty(Float64, []int{r, c})
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			a.floats[i*c+j] = m.At(i, j)
		}
	}
	return a
}

// ToMatrix はランク2のfloat64配列をgonumの*mat.Denseに変換する。
func (a *Array) ToMatrix() (*mat.Dense, error) {
	if a.NDim() != 2 {
		return nil, errors.Newf("ndarray: ToMatrix requires a 2-dimensional array, got rank %d", a.NDim())
	}
	f, err := a.asFloats()
	if err != nil {
		return nil, err
	}
	return mat.NewDense(a.shape[0], a.shape[1], append([]float64(nil), f...)), nil
}

// DType は要素型を返す。
func (a *Array) DType() DType { return a.dtype }

// NDim はランク（軸数）を返す。
func (a *Array) NDim() int { return len(a.shape) }

// Shape は形状のコピーを返す。
func (a *Array) Shape() []int { return append([]int(nil), a.shape...) }

// Size は全要素数を返す。
func (a *Array) Size() int { return sizeOf(a.shape) }

// Len は先頭次元の長さを返す。ランク0の場合は0。
func (a *Array) Len() int {
	if len(a.shape) == 0 {
		return 0
	}
	return a.shape[0]
}

// Float64At はフラットインデックスiの要素をfloat64として返す。
// 数値型以外はパニックするため、呼び出し側でIsNumericを確認すること。
func (a *Array) Float64At(i int) float64 {
	switch a.dtype {
	case Float64:
		return a.floats[i]
	case Int64:
		return float64(a.ints[i])
	case Bool:
		if a.bools[i] {
			return 1
		}
		return 0
	default:
		panic("ndarray: Float64At on non-numeric dtype " + a.dtype.String())
	}
}

// Int64At はフラットインデックスiの要素をint64として返す。
func (a *Array) Int64At(i int) int64 {
	switch a.dtype {
	case Int64, Time:
		return a.ints[i]
	case Bool:
		if a.bools[i] {
			return 1
		}
		return 0
	case Float64:
		return int64(a.floats[i])
	default:
		panic("ndarray: Int64At on dtype " + a.dtype.String())
	}
}

// BoolAt はフラットインデックスiの要素を返す。
func (a *Array) BoolAt(i int) bool { return a.bools[i] }

// StringAt はフラットインデックスiの要素を返す。
func (a *Array) StringAt(i int) string { return a.strs[i] }

// TimeNanosAt は時刻型要素のエポックナノ秒を返す。
func (a *Array) TimeNanosAt(i int) int64 { return a.ints[i] }

// TimeAt は時刻型要素をtime.Timeとして返す。NaTはゼロ値になる。
func (a *Array) TimeAt(i int) time.Time {
	if a.ints[i] == NaT {
		return time.Time{}
	}
	return time.Unix(0, a.ints[i]).UTC()
}

// Float64s は全要素をfloat64スライスとして返す（数値型のみ）。
func (a *Array) Float64s() ([]float64, error) {
	f, err := a.asFloats()
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), f...), nil
}

// asFloats は変換済みfloat64ビューを返す。Float64型の場合は内部バッファを
// そのまま返すため、呼び出し側は変更してはならない。
func (a *Array) asFloats() ([]float64, error) {
	if !a.dtype.IsNumeric() {
		return nil, errors.Newf("ndarray: cannot view dtype %s as float64", a.dtype)
	}
	if a.dtype == Float64 {
		return a.floats, nil
	}
	out := make([]float64, a.Size())
	for i := range out {
		out[i] = a.Float64At(i)
	}
	return out, nil
}

// Strings は文字列型配列の全要素を返す。
func (a *Array) Strings() ([]string, error) {
	if a.dtype != String {
		return nil, errors.Newf("ndarray: Strings on dtype %s", a.dtype)
	}
	return append([]string(nil), a.strs...), nil
}

// Times は時刻型配列の全要素を返す。
func (a *Array) Times() ([]time.Time, error) {
	if a.dtype != Time {
		return nil, errors.Newf("ndarray: Times on dtype %s", a.dtype)
	}
	out := make([]time.Time, a.Size())
	for i := range out {
		out[i] = a.TimeAt(i)
	}
	return out, nil
}

// AsFloat64 は数値型配列をFloat64型へ変換した新しい配列を返す。
// すでにFloat64の場合は自身を返す。
func (a *Array) AsFloat64() (*Array, error) {
	if a.dtype == Float64 {
		return a, nil
	}
	f, err := a.asFloats()
	if err != nil {
		return nil, err
	}
	return &Array{dtype: Float64, shape: a.Shape(), floats: append([]float64(nil), f...)}, nil
}

// Equal は型・形状・全要素の一致を判定する。NaN同士は等しいとみなす。
func (a *Array) Equal(b *Array) bool {
	if a.dtype != b.dtype || len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	n := a.Size()
	switch a.dtype {
	case Float64:
		for i := 0; i < n; i++ {
			x, y := a.floats[i], b.floats[i]
			if x != y && !(isNaN(x) && isNaN(y)) {
				return false
			}
		}
	case Int64, Time:
		for i := 0; i < n; i++ {
			if a.ints[i] != b.ints[i] {
				return false
			}
		}
	case Bool:
		for i := 0; i < n; i++ {
			if a.bools[i] != b.bools[i] {
				return false
			}
		}
	case String:
		for i := 0; i < n; i++ {
			if a.strs[i] != b.strs[i] {
				return false
			}
		}
	}
	return true
}

// copyBlock はsrcのフラット位置srcOffからn要素をdstのdstOffへコピーする。
// dstとsrcは同一dtypeであること。
func copyBlock(dst, src *Array, dstOff, srcOff, n int) {
	switch src.dtype {
	case Float64:
		copy(dst.floats[dstOff:dstOff+n], src.floats[srcOff:srcOff+n])
	case Int64, Time:
		copy(dst.ints[dstOff:dstOff+n], src.ints[srcOff:srcOff+n])
	case Bool:
		copy(dst.bools[dstOff:dstOff+n], src.bools[srcOff:srcOff+n])
	case String:
		copy(dst.strs[dstOff:dstOff+n], src.strs[srcOff:srcOff+n])
	}
}

// Take は指定軸に沿ってindicesの位置を選択した新しい配列を返す。
// 結果の形状は元と同じランクで、対象軸の長さがlen(indices)になる。
func (a *Array) Take(axis int, indices []int) (*Array, error) {
	if axis < 0 || axis >= len(a.shape) {
		return nil, errors.Newf("ndarray: axis %d out of range for rank %d", axis, len(a.shape))
	}
	dim := a.shape[axis]
	for _, idx := range indices {
		if idx < 0 || idx >= dim {
			return nil, errors.Newf("ndarray: index %d out of range for axis %d (length %d)", idx, axis, dim)
		}
	}

	outShape := a.Shape()
	outShape[axis] = len(indices)
	out := newEmpty(a.dtype, outShape)

	inner := sizeOf(a.shape[axis+1:])
	outer := sizeOf(a.shape[:axis])
	for o := 0; o < outer; o++ {
		for j, idx := range indices {
			srcOff := (o*dim + idx) * inner
			dstOff := (o*len(indices) + j) * inner
			copyBlock(out, a, dstOff, srcOff, inner)
		}
	}
	return out, nil
}

// TakeAt は指定軸の位置iを選択し、その軸を取り除いた配列を返す。
func (a *Array) TakeAt(axis, i int) (*Array, error) {
	taken, err := a.Take(axis, []int{i})
	if err != nil {
		return nil, err
	}
	return taken.dropAxis(axis), nil
}

func (a *Array) dropAxis(axis int) *Array {
	outShape := make([]int, 0, len(a.shape)-1)
	outShape = append(outShape, a.shape[:axis]...)
	outShape = append(outShape, a.shape[axis+1:]...)
	out := *a
	out.shape = outShape
	return &out
}

// SqueezeAxes は指定した長さ1の軸を取り除いた配列を返す。
// 軸の長さが1でない場合はエラー。
func (a *Array) SqueezeAxes(axes []int) (*Array, error) {
	drop := make(map[int]bool, len(axes))
	for _, ax := range axes {
		if ax < 0 || ax >= len(a.shape) {
			return nil, errors.Newf("ndarray: axis %d out of range for rank %d", ax, len(a.shape))
		}
		if a.shape[ax] != 1 {
			return nil, errors.Newf("ndarray: cannot squeeze axis %d with length %d", ax, a.shape[ax])
		}
		drop[ax] = true
	}
	outShape := make([]int, 0, len(a.shape))
	for i, s := range a.shape {
		if !drop[i] {
			outShape = append(outShape, s)
		}
	}
	out := *a
	out.shape = outShape
	return &out, nil
}

// Transpose は軸順序を反転した新しい配列を返す。
// orderを指定した場合はその軸順に並べ替える。
func (a *Array) Transpose(order ...int) (*Array, error) {
	n := len(a.shape)
	if len(order) == 0 {
		order = make([]int, n)
		for i := range order {
			order[i] = n - 1 - i
		}
	}
	if len(order) != n {
		return nil, errors.Newf("ndarray: transpose order length %d does not match rank %d", len(order), n)
	}
	seen := make([]bool, n)
	for _, ax := range order {
		if ax < 0 || ax >= n || seen[ax] {
			return nil, errors.Newf("ndarray: invalid transpose order %v", order)
		}
		seen[ax] = true
	}

	outShape := make([]int, n)
	for i, ax := range order {
		outShape[i] = a.shape[ax]
	}
	out := newEmpty(a.dtype, outShape)

	srcStrides := strides(a.shape)
	dstStrides := strides(outShape)
	coords := make([]int, n)
	for flat := 0; flat < a.Size(); flat++ {
		rem := flat
		for i := 0; i < n; i++ {
			coords[i] = rem / srcStrides[i]
			rem %= srcStrides[i]
		}
		dst := 0
		for i, ax := range order {
			dst += coords[ax] * dstStrides[i]
		}
		copyBlock(out, a, dst, flat, 1)
	}
	return out, nil
}

// Stack は同一形状・同一dtypeの配列列を新しい先頭軸で積み上げる。
func Stack(arrays []*Array) (*Array, error) {
	if len(arrays) == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	first := arrays[0]
	for _, a := range arrays[1:] {
		if a.dtype != first.dtype {
			return nil, errors.Newf("ndarray: cannot stack dtype %s with %s", a.dtype, first.dtype)
		}
		if a.Size() != first.Size() || len(a.shape) != len(first.shape) {
			return nil, errors.NewShapeMismatchError("Stack", "", first.Size(), a.Size())
		}
		for i := range a.shape {
			if a.shape[i] != first.shape[i] {
				return nil, errors.NewShapeMismatchError("Stack", "", first.shape[i], a.shape[i])
			}
		}
	}

	outShape := append([]int{len(arrays)}, first.shape...)
	out := newEmpty(first.dtype, outShape)
	inner := first.Size()
	for i, a := range arrays {
		copyBlock(out, a, i*inner, 0, inner)
	}
	return out, nil
}
