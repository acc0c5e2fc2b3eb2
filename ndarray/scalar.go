package ndarray

import (
	"iter"
	"math"
	"time"

	"github.com/YuminosukeSato/dimarray/pkg/errors"
)

func nan() float64 { return math.NaN() }

func isNaN(v float64) bool { return math.IsNaN(v) }

// スカラー変換プロトコル: ランク0配列のみ、単一の基底値への変換に委譲する。

func (a *Array) scalarCheck(op string) error {
	if a.NDim() != 0 {
		return errors.Newf("ndarray: %s requires a 0-dimensional array, got rank %d", op, a.NDim())
	}
	return nil
}

// Float はランク0配列をfloat64スカラーへ変換する。
func (a *Array) Float() (float64, error) {
	if err := a.scalarCheck("Float"); err != nil {
		return 0, err
	}
	if !a.dtype.IsNumeric() {
		return 0, errors.Newf("ndarray: cannot convert dtype %s to float", a.dtype)
	}
	return a.Float64At(0), nil
}

// Int はランク0配列をint64スカラーへ変換する。
func (a *Array) Int() (int64, error) {
	if err := a.scalarCheck("Int"); err != nil {
		return 0, err
	}
	if !a.dtype.IsNumeric() {
		return 0, errors.Newf("ndarray: cannot convert dtype %s to int", a.dtype)
	}
	return a.Int64At(0), nil
}

// Bool はランク0配列を真偽値スカラーへ変換する。数値型はゼロ以外を真とする。
func (a *Array) Bool() (bool, error) {
	if err := a.scalarCheck("Bool"); err != nil {
		return false, err
	}
	switch a.dtype {
	case Bool:
		return a.bools[0], nil
	case Int64:
		return a.ints[0] != 0, nil
	case Float64:
		return a.floats[0] != 0, nil
	default:
		return false, errors.Newf("ndarray: cannot convert dtype %s to bool", a.dtype)
	}
}

// Complex はランク0配列をcomplex128スカラーへ変換する。
func (a *Array) Complex() (complex128, error) {
	f, err := a.Float()
	if err != nil {
		return 0, err
	}
	return complex(f, 0), nil
}

// Time はランク0の時刻型配列をtime.Timeスカラーへ変換する。
func (a *Array) Time() (time.Time, error) {
	if err := a.scalarCheck("Time"); err != nil {
		return time.Time{}, err
	}
	if a.dtype != Time {
		return time.Time{}, errors.Newf("ndarray: cannot convert dtype %s to time", a.dtype)
	}
	return a.TimeAt(0), nil
}

// Slice0 は先頭軸の位置iのランクN-1部分配列ビューを返す。
// バッファは共有されるため、返り値は読み取り専用として扱うこと。
func (a *Array) Slice0(i int) *Array {
	inner := sizeOf(a.shape[1:])
	sub := &Array{dtype: a.dtype, shape: append([]int(nil), a.shape[1:]...)}
	lo, hi := i*inner, (i+1)*inner
	switch a.dtype {
	case Float64:
		sub.floats = a.floats[lo:hi]
	case Int64, Time:
		sub.ints = a.ints[lo:hi]
	case Bool:
		sub.bools = a.bools[lo:hi]
	case String:
		sub.strs = a.strs[lo:hi]
	}
	return sub
}

// Iter は先頭軸に沿った要素列を返す。各要素はランクN-1の部分配列。
// ランク0配列に対してはエラー。返されたシーケンスは呼び出しごとに
// 先頭から走査し直せる（カーソル状態を共有しない）。
func (a *Array) Iter() (iter.Seq[*Array], error) {
	if a.NDim() == 0 {
		return nil, errors.WithStack(errors.ErrZeroDimIteration)
	}
	return func(yield func(*Array) bool) {
		for i := 0; i < a.shape[0]; i++ {
			if !yield(a.Slice0(i)) {
				return
			}
		}
	}, nil
}
