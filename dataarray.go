package dimarray

import (
	"iter"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dimarray/core/dims"
	"github.com/YuminosukeSato/dimarray/ndarray"
	"github.com/YuminosukeSato/dimarray/pkg/errors"
)

// DataArray は順序付き次元名の列と密な値バッファ、自由形式の属性
// メタデータを持つラベル付き配列です。
//
// dimsは構築後に不変で、次元名の変更は常に新しいインスタンスを生成する。
// attrsは同一性・等値性に関与しない、独立して変更可能なサイドテーブル。
type DataArray struct {
	name   string
	dims   []string
	values *ndarray.Array
	coords map[string]*DataArray
	attrs  map[string]any
}

// NewDataArray はラベル付き配列を作成する。
// len(dims)は値のランクと一致し、次元名は一意でなければならない。
func NewDataArray(name string, values *ndarray.Array, dimNames []string) (*DataArray, error) {
	if values == nil {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	if len(dimNames) != values.NDim() {
		return nil, errors.NewShapeMismatchError("NewDataArray", "", values.NDim(), len(dimNames))
	}
	if dup, ok := dims.Unique(dimNames); !ok {
		return nil, errors.Newf("dimarray: duplicate dimension name %q", dup)
	}
	return &DataArray{
		name:   name,
		dims:   append([]string(nil), dimNames...),
		values: values,
	}, nil
}

// Name は配列名を返す。
func (da *DataArray) Name() string { return da.name }

// Dims は順序付き次元名のコピーを返す。
func (da *DataArray) Dims() []string { return append([]string(nil), da.dims...) }

// Values は基底の値バッファを返す。
func (da *DataArray) Values() *ndarray.Array { return da.values }

// Shape は値バッファの形状を返す。
func (da *DataArray) Shape() []int { return da.values.Shape() }

// NDim はランクを返す。
func (da *DataArray) NDim() int { return da.values.NDim() }

// DimSize は次元名の長さを返す。
func (da *DataArray) DimSize(dim string) (int, error) {
	axis, err := da.AxisNum(dim)
	if err != nil {
		return 0, err
	}
	return da.values.Shape()[axis], nil
}

// Attrs は属性サイドテーブルを返す。呼び出し側が自由に変更してよい。
func (da *DataArray) Attrs() map[string]any {
	if da.attrs == nil {
		da.attrs = make(map[string]any)
	}
	return da.attrs
}

// SetAttr は属性を設定する。
func (da *DataArray) SetAttr(key string, value any) {
	da.Attrs()[key] = value
}

// Coord は次元名に紐づく1次元座標配列を返す。
func (da *DataArray) Coord(dim string) (*DataArray, bool) {
	c, ok := da.coords[dim]
	return c, ok
}

// SetCoord は次元dimの座標配列を設定する。座標は1次元で、その次元の
// 長さと一致しなければならない。
func (da *DataArray) SetCoord(dim string, coord *DataArray) error {
	size, err := da.DimSize(dim)
	if err != nil {
		return err
	}
	if coord.NDim() != 1 {
		return errors.Newf("dimarray: coordinate for %q must be 1-dimensional, got rank %d", dim, coord.NDim())
	}
	if coord.values.Len() != size {
		return errors.NewShapeMismatchError("SetCoord", dim, size, coord.values.Len())
	}
	if da.coords == nil {
		da.coords = make(map[string]*DataArray)
	}
	da.coords[dim] = coord
	return nil
}

// AxisNum は次元名に対応する軸位置を返す。
func (da *DataArray) AxisNum(dim string) (int, error) {
	return dims.Resolve(da.dims, dim)
}

// AxisNums は複数の次元名を軸位置の列に解決する。順序は入力順を保つ。
func (da *DataArray) AxisNums(names []string) ([]int, error) {
	return dims.ResolveAll(da.dims, names)
}

// ===========================================================================
//
//	スカラー変換・反復プロトコル
//
// ===========================================================================

// Float はランク0配列をfloat64スカラーへ変換する。
func (da *DataArray) Float() (float64, error) { return da.values.Float() }

// Int はランク0配列をint64スカラーへ変換する。
func (da *DataArray) Int() (int64, error) { return da.values.Int() }

// Bool はランク0配列を真偽値スカラーへ変換する。
func (da *DataArray) Bool() (bool, error) { return da.values.Bool() }

// Complex はランク0配列をcomplex128スカラーへ変換する。
func (da *DataArray) Complex() (complex128, error) { return da.values.Complex() }

// TimeValue はランク0の時刻型配列をtime.Timeスカラーへ変換する。
func (da *DataArray) TimeValue() (time.Time, error) { return da.values.Time() }

// Iter は先頭次元に沿った要素列を返す。各要素は先頭次元を除いた
// ランクN-1のDataArray。ランク0配列に対してはエラー。呼び出しごとに
// 新しいシーケンスを返すため、二度走査しても結果は変わらない。
func (da *DataArray) Iter() (iter.Seq[*DataArray], error) {
	inner, err := da.values.Iter()
	if err != nil {
		return nil, err
	}
	restDims := da.dims[1:]
	return func(yield func(*DataArray) bool) {
		for sub := range inner {
			elem := &DataArray{
				name:   da.name,
				dims:   append([]string(nil), restDims...),
				values: sub,
				coords: filterCoords(da.coords, restDims),
				attrs:  copyAttrs(da.attrs),
			}
			if !yield(elem) {
				return
			}
		}
	}, nil
}

// ===========================================================================
//
//	選択・変形
//
// ===========================================================================

// Isel は次元dimに沿って位置indicesを選択した新しい配列を返す。
// 次元は保持され、長さがlen(indices)になる。座標も同様に選択される。
func (da *DataArray) Isel(dim string, indices []int) (*DataArray, error) {
	axis, err := da.AxisNum(dim)
	if err != nil {
		return nil, err
	}
	taken, err := da.values.Take(axis, indices)
	if err != nil {
		return nil, err
	}
	out := &DataArray{
		name:   da.name,
		dims:   da.Dims(),
		values: taken,
		attrs:  copyAttrs(da.attrs),
	}
	for d, c := range da.coords {
		if d == dim {
			cTaken, err := c.values.Take(0, indices)
			if err != nil {
				return nil, err
			}
			c = &DataArray{name: c.name, dims: c.Dims(), values: cTaken, attrs: copyAttrs(c.attrs)}
		}
		if out.coords == nil {
			out.coords = make(map[string]*DataArray)
		}
		out.coords[d] = c
	}
	return out, nil
}

// IselAt は次元dimの位置iを選択し、その次元を取り除いた配列を返す。
func (da *DataArray) IselAt(dim string, i int) (*DataArray, error) {
	axis, err := da.AxisNum(dim)
	if err != nil {
		return nil, err
	}
	taken, err := da.values.TakeAt(axis, i)
	if err != nil {
		return nil, err
	}
	restDims := make([]string, 0, len(da.dims)-1)
	for _, d := range da.dims {
		if d != dim {
			restDims = append(restDims, d)
		}
	}
	return &DataArray{
		name:   da.name,
		dims:   restDims,
		values: taken,
		coords: filterCoords(da.coords, restDims),
		attrs:  copyAttrs(da.attrs),
	}, nil
}

// Squeeze は長さ1の次元を取り除いた新しい配列を返す。
//
// selectedを省略した場合は長さ1の次元すべてが対象になる。長さが1より
// 大きい次元を指定した場合はInvalidSqueezeError。
func (da *DataArray) Squeeze(selected ...string) (*DataArray, error) {
	target, err := dims.SelectSqueeze(da.dims, da.values.Shape(), selected)
	if err != nil {
		return nil, err
	}
	out := da
	for _, d := range target {
		out, err = out.IselAt(d, 0)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RenameDims は次元名を付け替えた新しいインスタンスを返す。
// 元のインスタンスは変更されない。
func (da *DataArray) RenameDims(mapping map[string]string) (*DataArray, error) {
	newDims := da.Dims()
	for old, nw := range mapping {
		axis, err := dims.Resolve(da.dims, old)
		if err != nil {
			return nil, err
		}
		newDims[axis] = nw
	}
	if dup, ok := dims.Unique(newDims); !ok {
		return nil, errors.Newf("dimarray: rename produces duplicate dimension name %q", dup)
	}
	out := &DataArray{
		name:   da.name,
		dims:   newDims,
		values: da.values,
		attrs:  copyAttrs(da.attrs),
	}
	for d, c := range da.coords {
		// 座標自身の次元名・配列名もマッピングに追従させる
		sub := make(map[string]string)
		for old, nw := range mapping {
			if dims.Contains(c.dims, old) {
				sub[old] = nw
			}
		}
		if len(sub) > 0 {
			rc, err := c.RenameDims(sub)
			if err != nil {
				return nil, err
			}
			c = rc
		}
		if nw, ok := mapping[d]; ok {
			if c.name == d {
				cc := *c
				cc.name = nw
				c = &cc
			}
			d = nw
		}
		if out.coords == nil {
			out.coords = make(map[string]*DataArray)
		}
		out.coords[d] = c
	}
	return out, nil
}

// Transpose は次元を指定した順序に並べ替えた新しい配列を返す。
// 引数を省略した場合は次元順を反転する。
func (da *DataArray) Transpose(order ...string) (*DataArray, error) {
	var axes []int
	var newDims []string
	if len(order) == 0 {
		n := len(da.dims)
		axes = make([]int, n)
		newDims = make([]string, n)
		for i := 0; i < n; i++ {
			axes[i] = n - 1 - i
			newDims[i] = da.dims[n-1-i]
		}
	} else {
		var err error
		axes, err = da.AxisNums(order)
		if err != nil {
			return nil, err
		}
		newDims = append([]string(nil), order...)
	}
	transposed, err := da.values.Transpose(axes...)
	if err != nil {
		return nil, err
	}
	return &DataArray{
		name:   da.name,
		dims:   newDims,
		values: transposed,
		coords: filterCoords(da.coords, newDims),
		attrs:  copyAttrs(da.attrs),
	}, nil
}

// T はTranspose()の別名。
func (da *DataArray) T() (*DataArray, error) { return da.Transpose() }

// ===========================================================================
//
//	属性フォールバックチェーン
//
// ===========================================================================

// coordSource は座標マップをItemSourceとして公開するアダプタ。
type coordSource map[string]*DataArray

func (c coordSource) Item(name string) (any, bool) {
	v, ok := c[name]
	if !ok {
		return nil, false
	}
	return v, true
}

func (c coordSource) ItemKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// attrSources は属性スタイルのルックアップ先を優先順で返す。
// 座標が先、自由形式のattrsが後。
func (da *DataArray) attrSources() []ItemSource {
	return []ItemSource{coordSource(da.coords), mapSource(da.attrs)}
}

// GetAttr は属性スタイルのフォールバックルックアップを行う。座標、
// attrsの順に探索し、どちらにも無ければAttributeNotFoundError。
// 通常のメソッドはGoのメンバ解決が先に効くため、この経路が実際の
// APIを隠すことはない。
func (da *DataArray) GetAttr(name string) (any, error) {
	return ResolveAttr(da, da.attrSources(), name)
}

// AttrNames は補完用の属性名一覧（公開メソッド名と全ソースのキーの
// マージ、ソート済み）を返す。
func (da *DataArray) AttrNames() []string {
	return AttrNames(da, da.attrSources())
}

// ===========================================================================
//
//	内部ヘルパ
//
// ===========================================================================

func copyAttrs(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func filterCoords(coords map[string]*DataArray, keep []string) map[string]*DataArray {
	if coords == nil {
		return nil
	}
	var out map[string]*DataArray
	for _, d := range keep {
		if c, ok := coords[d]; ok {
			if out == nil {
				out = make(map[string]*DataArray)
			}
			out[d] = c
		}
	}
	return out
}

// NewFromMatrix はgonumの2次元行列からDataArrayを作成する。
func NewFromMatrix(name string, m mat.Matrix, rowDim, colDim string) (*DataArray, error) {
	return NewDataArray(name, ndarray.FromMatrix(m), []string{rowDim, colDim})
}
