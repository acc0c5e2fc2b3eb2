// Package viz はDataArrayの簡易可視化を提供します。
//
// gonum/plotの薄いラッパで、1次元配列を折れ線として描画可能な
// *plot.Plotに変換する。保存や表示は呼び出し側の責務。
package viz

import (
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/dimarray"
	"github.com/YuminosukeSato/dimarray/ndarray"
	"github.com/YuminosukeSato/dimarray/pkg/errors"
)

// LineOpts は折れ線プロットのオプションです。
type LineOpts struct {
	// Title はプロットの表題。空の場合は配列名が使われる。
	Title string
	// XLabel / YLabel は軸ラベル。空の場合は次元名と配列名が使われる。
	XLabel string
	YLabel string
}

// Line は1次元のDataArrayを折れ線プロットに変換する。唯一の次元に
// 時間型の座標が付いていれば横軸は時刻、数値型の座標が付いていれば
// その値、それ以外は要素位置になる。
func Line(da *dimarray.DataArray, opts LineOpts) (*plot.Plot, error) {
	if da.NDim() != 1 {
		return nil, errors.Newf("viz: Line requires a 1-dimensional array, got rank %d", da.NDim())
	}
	ys, err := da.Values().Float64s()
	if err != nil {
		return nil, err
	}
	dim := da.Dims()[0]

	p := plot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = da.Name()
	}
	p.X.Label.Text = opts.XLabel
	if p.X.Label.Text == "" {
		p.X.Label.Text = dim
	}
	p.Y.Label.Text = opts.YLabel
	if p.Y.Label.Text == "" {
		p.Y.Label.Text = da.Name()
	}

	xs, timeAxis, err := xValues(da, dim, len(ys))
	if err != nil {
		return nil, err
	}
	if timeAxis {
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04"}
	}

	pts := make(plotter.XYs, len(ys))
	for i := range ys {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "viz: building line")
	}
	line.LineStyle.Width = vg.Points(1)
	p.Add(line)
	p.Add(plotter.NewGrid())
	return p, nil
}

// xValues は横軸の値列を導出する。時間軸の場合は秒単位のUnix時刻を
// 返す（plot.TimeTicksの規約に合わせる）。
func xValues(da *dimarray.DataArray, dim string, n int) ([]float64, bool, error) {
	coord, ok := da.Coord(dim)
	if !ok {
		xs := make([]float64, n)
		for i := range xs {
			xs[i] = float64(i)
		}
		return xs, false, nil
	}
	cv := coord.Values()
	switch {
	case cv.DType() == ndarray.Time:
		xs := make([]float64, n)
		for i := range xs {
			xs[i] = float64(cv.TimeNanosAt(i)) / float64(time.Second)
		}
		return xs, true, nil
	case cv.DType().IsNumeric():
		xs, err := cv.Float64s()
		if err != nil {
			return nil, false, err
		}
		return xs, false, nil
	default:
		xs := make([]float64, n)
		for i := range xs {
			xs[i] = float64(i)
		}
		return xs, false, nil
	}
}
