// Package freq は頻度文字列の解析と時間バケット境界の生成を提供します。
// pandasのオフセットエイリアスのサブセット（S, Min, H, D, W, MS, QS, AS）を
// 整数倍率付きでサポートし、リサンプリングエンジンのバケット割り当てに
// 使用されます。
package freq

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/YuminosukeSato/dimarray/ndarray"
	"github.com/YuminosukeSato/dimarray/pkg/errors"
)

// Side はバケット区間の閉じる側・ラベルに使う側を表します。
type Side int

const (
	// Left は区間の左端
	Left Side = iota
	// Right は区間の右端
	Right
)

type unit int

const (
	second unit = iota
	minute
	hour
	day
	week
	monthStart
	quarterStart
	yearStart
)

// Rule は解析済みの頻度（整数倍率と単位）です。
type Rule struct {
	n    int
	unit unit
}

var unitAliases = map[string]unit{
	"S":   second,
	"MIN": minute,
	"T":   minute,
	"H":   hour,
	"D":   day,
	"W":   week,
	"MS":  monthStart,
	"QS":  quarterStart,
	"AS":  yearStart,
}

// Parse は"#offset"形式の頻度文字列を解析する。'#'は省略可能な整数倍率
// （デフォルト1）、'offset'はオフセットエイリアス。例: "6H", "15Min", "D", "MS"。
func Parse(s string) (*Rule, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	n := 1
	if i > 0 {
		var err error
		n, err = strconv.Atoi(s[:i])
		if err != nil || n < 1 {
			return nil, errors.Newf("freq: invalid multiplier in frequency %q", s)
		}
	}
	alias := strings.ToUpper(s[i:])
	u, ok := unitAliases[alias]
	if !ok {
		return nil, errors.Newf("freq: unknown frequency alias %q in %q", s[i:], s)
	}
	return &Rule{n: n, unit: u}, nil
}

// fixed は単位が固定長（暦に依存しない）かを返す。
func (r *Rule) fixed() bool { return r.unit <= day }

func (r *Rule) baseUnit() time.Duration {
	switch r.unit {
	case second:
		return time.Second
	case minute:
		return time.Minute
	case hour:
		return time.Hour
	default:
		return 24 * time.Hour
	}
}

// step は1バケット分だけtを進める。
func (r *Rule) step(t time.Time) time.Time {
	switch r.unit {
	case second, minute, hour, day:
		return t.Add(time.Duration(r.n) * r.baseUnit())
	case week:
		return t.AddDate(0, 0, 7*r.n)
	case monthStart:
		return t.AddDate(0, r.n, 0)
	case quarterStart:
		return t.AddDate(0, 3*r.n, 0)
	default: // yearStart
		return t.AddDate(r.n, 0, 0)
	}
}

// back は1バケット分だけtを戻す。
func (r *Rule) back(t time.Time) time.Time {
	switch r.unit {
	case second, minute, hour, day:
		return t.Add(-time.Duration(r.n) * r.baseUnit())
	case week:
		return t.AddDate(0, 0, -7*r.n)
	case monthStart:
		return t.AddDate(0, -r.n, 0)
	case quarterStart:
		return t.AddDate(0, -3*r.n, 0)
	default:
		return t.AddDate(-r.n, 0, 0)
	}
}

// anchor は最初の観測値以前の正準なバケット開始点を返す。
// 固定長単位は日境界から、暦単位はそれぞれの開始日（月初・四半期初・年初・
// 週の月曜）から数え始める。
func (r *Rule) anchor(t time.Time) time.Time {
	t = t.UTC()
	switch r.unit {
	case second, minute, hour:
		a := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		step := time.Duration(r.n) * r.baseUnit()
		for !a.Add(step).After(t) {
			a = a.Add(step)
		}
		return a
	case day:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case week:
		a := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(a.Weekday()) + 6) % 7 // 月曜始まり
		return a.AddDate(0, 0, -offset)
	case monthStart:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case quarterStart:
		qm := time.Month((int(t.Month())-1)/3*3 + 1)
		return time.Date(t.Year(), qm, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
}

// Bucketer は閉側・ラベル側・ベースオフセット込みのバケット割り当て規則です。
type Bucketer struct {
	rule   *Rule
	closed Side
	label  Side
	base   int
}

// NewBucketer は頻度文字列を解析してBucketerを作成する。
// baseは1日を均等に分割する頻度の「起点」オフセットで、頻度の基本単位
// （例: "24H"なら時間）の個数として適用される。
func NewBucketer(freqStr string, closed, label Side, base int) (*Bucketer, error) {
	rule, err := Parse(freqStr)
	if err != nil {
		return nil, err
	}
	return &Bucketer{rule: rule, closed: closed, label: label, base: base}, nil
}

// Bucket は観測時刻列（エポックナノ秒）をバケットへ割り当てる。
//
// 返り値は各バケットのラベル時刻（ナノ秒、時系列順）と、バケットごとの
// 観測インデックス列。要求範囲内で観測を持たないバケットも空のまま
// 含まれる。NaTの観測はどのバケットにも割り当てられない。
func (b *Bucketer) Bucket(nanos []int64) ([]int64, [][]int, error) {
	var lo, hi int64
	found := false
	for _, v := range nanos {
		if v == ndarray.NaT {
			continue
		}
		if !found || v < lo {
			lo = v
		}
		if !found || v > hi {
			hi = v
		}
		found = true
	}
	if !found {
		return nil, nil, errors.WithStack(errors.ErrEmptyData)
	}

	tmin := time.Unix(0, lo).UTC()
	tmax := time.Unix(0, hi).UTC()

	start := b.rule.anchor(tmin)
	if b.base != 0 && b.rule.fixed() {
		start = start.Add(time.Duration(b.base) * b.rule.baseUnit())
		for start.After(tmin) {
			start = b.rule.back(start)
		}
	}
	// closed=rightでは開始境界ちょうどの観測が前の区間に属する
	if b.closed == Right && !start.Before(tmin) {
		start = b.rule.back(start)
	}

	edges := []time.Time{start}
	for {
		last := edges[len(edges)-1]
		if b.closed == Left && last.After(tmax) {
			break
		}
		if b.closed == Right && !last.Before(tmax) {
			break
		}
		edges = append(edges, b.rule.step(last))
	}

	edgeNanos := make([]int64, len(edges))
	for i, e := range edges {
		edgeNanos[i] = e.UnixNano()
	}

	nbuckets := len(edges) - 1
	groups := make([][]int, nbuckets)
	for i, v := range nanos {
		if v == ndarray.NaT {
			continue
		}
		var idx int
		if b.closed == Left {
			// edges[idx] <= v < edges[idx+1]
			idx = sort.Search(len(edgeNanos), func(k int) bool { return edgeNanos[k] > v }) - 1
		} else {
			// edges[idx] < v <= edges[idx+1]
			idx = sort.Search(len(edgeNanos), func(k int) bool { return edgeNanos[k] >= v }) - 1
		}
		if idx < 0 || idx >= nbuckets {
			continue
		}
		groups[idx] = append(groups[idx], i)
	}

	labels := make([]int64, nbuckets)
	for i := 0; i < nbuckets; i++ {
		if b.label == Right {
			labels[i] = edgeNanos[i+1]
		} else {
			labels[i] = edgeNanos[i]
		}
	}
	return labels, groups, nil
}
