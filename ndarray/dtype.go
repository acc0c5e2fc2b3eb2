package ndarray

import "math"

// DType は配列要素の値型を表します。
type DType int

const (
	// Bool は真偽値型
	Bool DType = iota
	// Int64 は64bit整数型
	Int64
	// Float64 は64bit浮動小数点型
	Float64
	// Time はエポックナノ秒で保持する時刻型
	Time
	// String は文字列型
	String
)

// NaT は時刻型の欠損値センチネル（エポックナノ秒表現）。
const NaT int64 = math.MinInt64

// String はDTypeの名前を返す。
func (d DType) String() string {
	switch d {
	case Bool:
		return "bool"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case Time:
		return "time"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// IsNumeric は数値型（Bool, Int64, Float64）かを返す。
// 数値型の配列のみが集約カーネルの対象になる。
func (d DType) IsNumeric() bool {
	return d == Bool || d == Int64 || d == Float64
}

// IsFloat は浮動小数点型かを返す。NaNを表現できるのはこの型のみ。
func (d DType) IsFloat() bool {
	return d == Float64
}

// IsTime は時刻型かを返す。
func (d DType) IsTime() bool {
	return d == Time
}
