// Package dtype は欠損値を表現するための型昇格規則を提供します。
// 欠損位置が生じうる操作（不等長グループの再結合、充填なしのアップ
// サンプリングなど）の前に適用され、型を狭めることはありません。
package dtype

import (
	"math"

	"github.com/YuminosukeSato/dimarray/ndarray"
	"github.com/YuminosukeSato/dimarray/pkg/errors"
)

// Promote は値型dtに対し、欠損値センチネルを表現できる最小の昇格先の型と、
// その正準な欠損値を返す。
//
//	Float64 → Float64, NaN
//	Int64   → Float64, NaN
//	Bool    → Float64, NaN
//	Time    → Time,    NaT (エポックナノ秒のint64)
//	String  → String,  ""（Goにはobject型がないため空文字列をセンチネルとする）
//
// 型が広げられた場合はDataConversionWarningを発行する。
func Promote(dt ndarray.DType) (ndarray.DType, any) {
	switch dt {
	case ndarray.Float64:
		return ndarray.Float64, math.NaN()
	case ndarray.Int64, ndarray.Bool:
		errors.Warn(errors.NewDataConversionWarning(
			dt.String(), ndarray.Float64.String(),
			"promoted to floating point so NaN can represent missing values"))
		return ndarray.Float64, math.NaN()
	case ndarray.Time:
		return ndarray.Time, ndarray.NaT
	default:
		return ndarray.String, ""
	}
}

// PromoteArray は配列aを昇格後の型へ変換して返す。昇格が不要な場合は
// aをそのまま返す。
func PromoteArray(a *ndarray.Array) (*ndarray.Array, error) {
	promoted, _ := Promote(a.DType())
	if promoted == a.DType() {
		return a, nil
	}
	return a.AsFloat64()
}
