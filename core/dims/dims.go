// Package dims は次元名から軸位置への解決を提供します。
// 配列のスライス・結合・リシェイプを通じて次元名と軸位置の対応を保つための
// 純粋なインデックス計算であり、状態を持ちません。
package dims

import (
	"github.com/YuminosukeSato/dimarray/pkg/errors"
)

// Resolve は次元名dimの、順序付き次元名列dimsにおけるゼロ始まりの軸位置を返す。
// dimがdimsに存在しない場合はDimensionNotFoundErrorを返す。
func Resolve(dims []string, dim string) (int, error) {
	for i, d := range dims {
		if d == dim {
			return i, nil
		}
	}
	return 0, errors.NewDimensionNotFoundError(dim, dims)
}

// ResolveAll は複数の次元名を軸位置の列に解決する。
// 返り値の順序は入力namesの順序を保つ（ソートしない）。
func ResolveAll(dims []string, names []string) ([]int, error) {
	axes := make([]int, len(names))
	for i, name := range names {
		axis, err := Resolve(dims, name)
		if err != nil {
			return nil, err
		}
		axes[i] = axis
	}
	return axes, nil
}

// Contains は次元名dimがdimsに含まれるかを返す。
func Contains(dims []string, dim string) bool {
	for _, d := range dims {
		if d == dim {
			return true
		}
	}
	return false
}

// Unique はdimsの各次元名が一意かを検証する。
// 重複があった場合は最初に重複した名前を返す。
func Unique(dims []string) (string, bool) {
	seen := make(map[string]struct{}, len(dims))
	for _, d := range dims {
		if _, ok := seen[d]; ok {
			return d, false
		}
		seen[d] = struct{}{}
	}
	return "", true
}

// SelectSqueeze はsqueeze対象の次元を選択する。
//
// selectedがnilの場合、長さ1の次元すべてを対象として返す。
// selectedが指定された場合はその次元を検証し、長さが1より大きい次元が
// 含まれていればInvalidSqueezeErrorを返す。存在しない次元名は
// DimensionNotFoundErrorとなる。
func SelectSqueeze(names []string, sizes []int, selected []string) ([]string, error) {
	if selected == nil {
		var out []string
		for i, name := range names {
			if sizes[i] == 1 {
				out = append(out, name)
			}
		}
		return out, nil
	}

	for _, name := range selected {
		axis, err := Resolve(names, name)
		if err != nil {
			return nil, err
		}
		if sizes[axis] > 1 {
			return nil, errors.NewInvalidSqueezeError(name, sizes[axis])
		}
	}
	return selected, nil
}
