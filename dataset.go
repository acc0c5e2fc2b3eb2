package dimarray

import (
	"github.com/YuminosukeSato/dimarray/core/dims"
	"github.com/YuminosukeSato/dimarray/pkg/errors"
)

// Dataset は変数名からDataArrayへのマッピングと、コレクションレベルの
// 属性を持つ複数変数コンテナです。
//
// 同じ次元名を共有する変数同士は、その次元の長さが一致しなければ
// ならない。変数は挿入順を保って走査される。
type Dataset struct {
	names []string
	vars  map[string]*DataArray
	attrs map[string]any
}

// NewDataset は空のDatasetを作成する。
func NewDataset() *Dataset {
	return &Dataset{vars: make(map[string]*DataArray)}
}

// Set は変数を追加または置換する。既存変数と共有する次元の長さが
// 一致しない場合はShapeMismatchError。
func (ds *Dataset) Set(name string, da *DataArray) error {
	// 置換される変数自身は検証対象から除く
	sizes := make(map[string]int)
	for _, n := range ds.names {
		if n == name {
			continue
		}
		v := ds.vars[n]
		shape := v.values.Shape()
		for i, d := range v.dims {
			sizes[d] = shape[i]
		}
	}
	for i, d := range da.dims {
		if want, ok := sizes[d]; ok && da.values.Shape()[i] != want {
			return errors.NewShapeMismatchError("Dataset.Set", d, want, da.values.Shape()[i])
		}
	}
	if _, exists := ds.vars[name]; !exists {
		ds.names = append(ds.names, name)
	}
	ds.vars[name] = da
	return nil
}

// Get は変数を返す。
func (ds *Dataset) Get(name string) (*DataArray, bool) {
	v, ok := ds.vars[name]
	return v, ok
}

// Var は変数を返す。存在しない場合はエラー。
func (ds *Dataset) Var(name string) (*DataArray, error) {
	v, ok := ds.vars[name]
	if !ok {
		return nil, errors.Newf("dimarray: no variable named %q in dataset", name)
	}
	return v, nil
}

// VarNames は挿入順の変数名一覧を返す。
func (ds *Dataset) VarNames() []string {
	return append([]string(nil), ds.names...)
}

// NumVars は変数の数を返す。
func (ds *Dataset) NumVars() int { return len(ds.names) }

// DimSizes は全変数に現れる次元名とその長さのマッピングを返す。
func (ds *Dataset) DimSizes() map[string]int {
	sizes := make(map[string]int)
	for _, name := range ds.names {
		v := ds.vars[name]
		shape := v.values.Shape()
		for i, d := range v.dims {
			sizes[d] = shape[i]
		}
	}
	return sizes
}

// Attrs は属性サイドテーブルを返す。呼び出し側が自由に変更してよい。
func (ds *Dataset) Attrs() map[string]any {
	if ds.attrs == nil {
		ds.attrs = make(map[string]any)
	}
	return ds.attrs
}

// SetAttr は属性を設定する。
func (ds *Dataset) SetAttr(key string, value any) {
	ds.Attrs()[key] = value
}

// varSource は変数マップをItemSourceとして公開するアダプタ。
type varSource struct{ ds *Dataset }

func (s varSource) Item(name string) (any, bool) {
	v, ok := s.ds.vars[name]
	if !ok {
		return nil, false
	}
	return v, true
}

func (s varSource) ItemKeys() []string { return s.ds.VarNames() }

func (ds *Dataset) attrSources() []ItemSource {
	return []ItemSource{varSource{ds}, mapSource(ds.attrs)}
}

// GetAttr は属性スタイルのフォールバックルックアップを行う。変数、
// attrsの順に探索し、どちらにも無ければAttributeNotFoundError。
func (ds *Dataset) GetAttr(name string) (any, error) {
	return ResolveAttr(ds, ds.attrSources(), name)
}

// AttrNames は補完用の属性名一覧を返す。
func (ds *Dataset) AttrNames() []string {
	return AttrNames(ds, ds.attrSources())
}

// RenameDims は全変数の次元名を付け替えた新しいDatasetを返す。
func (ds *Dataset) RenameDims(mapping map[string]string) (*Dataset, error) {
	out := NewDataset()
	out.attrs = copyAttrs(ds.attrs)
	for _, name := range ds.names {
		v := ds.vars[name]
		sub := make(map[string]string)
		for old, nw := range mapping {
			if dims.Contains(v.dims, old) {
				sub[old] = nw
			}
		}
		if len(sub) > 0 {
			renamed, err := v.RenameDims(sub)
			if err != nil {
				return nil, err
			}
			v = renamed
		}
		if err := out.Set(name, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Squeeze は長さ1の次元を全変数から取り除いた新しいDatasetを返す。
// selectedを省略した場合は長さ1の次元すべてが対象になる。長さが1より
// 大きい次元を指定した場合はInvalidSqueezeError。
func (ds *Dataset) Squeeze(selected ...string) (*Dataset, error) {
	var names []string
	var lens []int
	for _, name := range ds.names {
		for i, d := range ds.vars[name].dims {
			if !containsStr(names, d) {
				names = append(names, d)
				lens = append(lens, ds.vars[name].values.Shape()[i])
			}
		}
	}
	target, err := dims.SelectSqueeze(names, lens, selected)
	if err != nil {
		return nil, err
	}

	out := NewDataset()
	out.attrs = copyAttrs(ds.attrs)
	for _, name := range ds.names {
		v := ds.vars[name]
		for _, d := range target {
			if dims.Contains(v.dims, d) {
				v, err = v.IselAt(d, 0)
				if err != nil {
					return nil, err
				}
			}
		}
		if err := out.Set(name, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func containsStr(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
