package dimarray

import (
	"reflect"
	"sort"

	"github.com/YuminosukeSato/dimarray/pkg/errors"
)

// ItemSource は属性スタイルのルックアップの裏付けとなるキー/値ストアです。
// DataArrayでは座標、Datasetでは変数が最優先のソースになり、その後に
// 自由形式のattrsマッピングが続きます。
type ItemSource interface {
	// Item は名前に対応する値を返す。
	Item(name string) (any, bool)
	// ItemKeys は保持する全キーを返す。
	ItemKeys() []string
}

// mapSource はmap[string]anyをItemSourceとして扱うアダプタ。
type mapSource map[string]any

func (m mapSource) Item(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func (m mapSource) ItemKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// ResolveAttr はソース列を順に探索し、最初に見つかった値を返す。
// 全ソースで見つからなかった場合のみAttributeNotFoundErrorを返す。
//
// この関数は通常のメソッド・フィールド解決が失敗した後のフォールバック
// 経路であり、所有型の実際のメンバを隠すことはない。
func ResolveAttr(owner any, sources []ItemSource, name string) (any, error) {
	for _, src := range sources {
		if v, ok := src.Item(name); ok {
			return v, nil
		}
	}
	return nil, errors.NewAttributeNotFoundError(typeName(owner), name)
}

// AttrNames は補完用の属性名一覧を返す。所有型の公開メソッド名と
// 全ソースのキーをマージし、重複を除いてソート順で返す。
func AttrNames(owner any, sources []ItemSource) []string {
	seen := make(map[string]struct{})

	t := reflect.TypeOf(owner)
	for i := 0; i < t.NumMethod(); i++ {
		seen[t.Method(i).Name] = struct{}{}
	}
	for _, src := range sources {
		for _, k := range src.ItemKeys() {
			seen[k] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func typeName(owner any) string {
	t := reflect.TypeOf(owner)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
