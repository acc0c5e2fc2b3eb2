package dimarray

import (
	"fmt"
	"strings"
	"sync"
)

// ReprFunc はDataArrayを表示用文字列に整形するフックです。
// 整形そのものは別コンポーネントの責務であり、この層は委譲先の
// 契約だけを定義する。
type ReprFunc func(da *DataArray) string

var (
	reprMu   sync.RWMutex
	reprFunc ReprFunc = defaultRepr
)

// SetReprFunc は表示用整形フックを差し替える。nilでデフォルトに戻す。
func SetReprFunc(f ReprFunc) {
	reprMu.Lock()
	defer reprMu.Unlock()
	if f == nil {
		f = defaultRepr
	}
	reprFunc = f
}

func defaultRepr(da *DataArray) string {
	parts := make([]string, len(da.dims))
	for i, d := range da.dims {
		parts[i] = fmt.Sprintf("%s: %d", d, da.values.Shape()[i])
	}
	name := da.name
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("<dimarray.DataArray %s (%s) %s>", name, strings.Join(parts, ", "), da.values.DType())
}

// String は登録済みのReprFuncへ委譲する。
func (da *DataArray) String() string {
	reprMu.RLock()
	f := reprFunc
	reprMu.RUnlock()
	return f(da)
}

// String はDatasetの簡易表現を返す。
func (ds *Dataset) String() string {
	return fmt.Sprintf("<dimarray.Dataset %d variables>", len(ds.names))
}
