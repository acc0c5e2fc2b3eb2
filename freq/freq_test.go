package freq

import (
	"testing"
	"time"

	"github.com/YuminosukeSato/dimarray/ndarray"
	"github.com/YuminosukeSato/dimarray/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		wantN    int
		wantUnit unit
		wantErr  bool
	}{
		{in: "S", wantN: 1, wantUnit: second},
		{in: "15Min", wantN: 15, wantUnit: minute},
		{in: "15T", wantN: 15, wantUnit: minute},
		{in: "6H", wantN: 6, wantUnit: hour},
		{in: "D", wantN: 1, wantUnit: day},
		{in: "2W", wantN: 2, wantUnit: week},
		{in: "MS", wantN: 1, wantUnit: monthStart},
		{in: "QS", wantN: 1, wantUnit: quarterStart},
		{in: "AS", wantN: 1, wantUnit: yearStart},
		{in: "0H", wantErr: true},
		{in: "X", wantErr: true},
		{in: "", wantErr: true},
		{in: "6", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if r.n != tt.wantN || r.unit != tt.wantUnit {
				t.Errorf("Parse(%q) = {n:%d unit:%d}, want {n:%d unit:%d}", tt.in, r.n, r.unit, tt.wantN, tt.wantUnit)
			}
		})
	}
}

func hourly(start time.Time, n int) []int64 {
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = start.Add(time.Duration(i) * time.Hour).UnixNano()
	}
	return out
}

func TestBucketHourlyTo6H(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	nanos := hourly(start, 24)

	b, err := NewBucketer("6H", Left, Left, 0)
	if err != nil {
		t.Fatal(err)
	}
	labels, groups, err := b.Bucket(nanos)
	if err != nil {
		t.Fatal(err)
	}

	if len(groups) != 4 {
		t.Fatalf("got %d buckets, want 4", len(groups))
	}
	for i, g := range groups {
		if len(g) != 6 {
			t.Errorf("bucket %d has %d observations, want 6", i, len(g))
		}
	}
	for i := range labels {
		want := start.Add(time.Duration(6*i) * time.Hour).UnixNano()
		if labels[i] != want {
			t.Errorf("label[%d] = %v, want %v", i, time.Unix(0, labels[i]).UTC(), time.Unix(0, want).UTC())
		}
	}
}

// closed=rightでは開始境界ちょうどの観測が前の区間に属する。
func TestBucketClosedRight(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	nanos := hourly(start, 24)

	b, err := NewBucketer("6H", Right, Left, 0)
	if err != nil {
		t.Fatal(err)
	}
	_, groups, err := b.Bucket(nanos)
	if err != nil {
		t.Fatal(err)
	}

	wantSizes := []int{1, 6, 6, 6, 5}
	if len(groups) != len(wantSizes) {
		t.Fatalf("got %d buckets, want %d", len(groups), len(wantSizes))
	}
	for i, want := range wantSizes {
		if len(groups[i]) != want {
			t.Errorf("bucket %d has %d observations, want %d", i, len(groups[i]), want)
		}
	}
}

func TestBucketLabelRight(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	nanos := hourly(start, 12)

	b, err := NewBucketer("6H", Left, Right, 0)
	if err != nil {
		t.Fatal(err)
	}
	labels, groups, err := b.Bucket(nanos)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d buckets, want 2", len(groups))
	}
	// ラベルは各区間の右端
	if labels[0] != start.Add(6*time.Hour).UnixNano() || labels[1] != start.Add(12*time.Hour).UnixNano() {
		t.Errorf("labels = %v, want right edges 06:00 and 12:00", labels)
	}
}

// 観測を持たない中間バケットも空のまま保持される。
func TestBucketMonthlyWithGap(t *testing.T) {
	obs := []int64{
		time.Date(2014, 1, 15, 0, 0, 0, 0, time.UTC).UnixNano(),
		time.Date(2014, 2, 20, 0, 0, 0, 0, time.UTC).UnixNano(),
		time.Date(2014, 4, 1, 0, 0, 0, 0, time.UTC).UnixNano(),
	}
	b, err := NewBucketer("MS", Left, Left, 0)
	if err != nil {
		t.Fatal(err)
	}
	labels, groups, err := b.Bucket(obs)
	if err != nil {
		t.Fatal(err)
	}

	if len(groups) != 4 {
		t.Fatalf("got %d buckets, want 4 (Jan..Apr)", len(groups))
	}
	if len(groups[0]) != 1 || len(groups[1]) != 1 || len(groups[2]) != 0 || len(groups[3]) != 1 {
		t.Errorf("group sizes = [%d %d %d %d], want [1 1 0 1]",
			len(groups[0]), len(groups[1]), len(groups[2]), len(groups[3]))
	}
	wantFirst := time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	if labels[0] != wantFirst {
		t.Errorf("first label = %v, want 2014-01-01", time.Unix(0, labels[0]).UTC())
	}
}

// 週バケットは月曜を起点とする。
func TestBucketWeekly(t *testing.T) {
	start := time.Date(2014, 6, 5, 0, 0, 0, 0, time.UTC) // 木曜
	obs := make([]int64, 8)
	for i := range obs {
		obs[i] = start.AddDate(0, 0, i).UnixNano()
	}
	b, err := NewBucketer("W", Left, Left, 0)
	if err != nil {
		t.Fatal(err)
	}
	labels, groups, err := b.Bucket(obs)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 || len(groups[0]) != 4 || len(groups[1]) != 4 {
		t.Fatalf("weekly groups = %v, want two groups of 4", groups)
	}
	wantMonday := time.Date(2014, 6, 2, 0, 0, 0, 0, time.UTC).UnixNano()
	if labels[0] != wantMonday {
		t.Errorf("first label = %v, want Monday 2014-06-02", time.Unix(0, labels[0]).UTC())
	}
}

// baseオフセットは固定長頻度の境界を基本単位の個数分ずらす。
func TestBucketBaseOffset(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	nanos := hourly(start, 6)

	b, err := NewBucketer("3H", Left, Left, 1)
	if err != nil {
		t.Fatal(err)
	}
	labels, groups, err := b.Bucket(nanos)
	if err != nil {
		t.Fatal(err)
	}

	// 境界は...22:00, 01:00, 04:00, 07:00...に揃う
	for _, l := range labels {
		hh := time.Unix(0, l).UTC().Hour()
		if hh%3 != 1 {
			t.Errorf("label hour = %d, want congruent to 1 mod 3", hh)
		}
	}
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	if total != len(nanos) {
		t.Errorf("assigned %d observations, want %d", total, len(nanos))
	}
}

func TestBucketSkipsNaT(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	nanos := append(hourly(start, 3), ndarray.NaT)

	b, err := NewBucketer("H", Left, Left, 0)
	if err != nil {
		t.Fatal(err)
	}
	_, groups, err := b.Bucket(nanos)
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	if total != 3 {
		t.Errorf("assigned %d observations, want 3 (NaT excluded)", total)
	}
}

func TestBucketAllMissing(t *testing.T) {
	b, err := NewBucketer("D", Left, Left, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := b.Bucket([]int64{ndarray.NaT, ndarray.NaT}); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("Bucket of all-NaT = %v, want ErrEmptyData", err)
	}
	if _, _, err := b.Bucket(nil); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("Bucket of empty input = %v, want ErrEmptyData", err)
	}
}

// 1観測が1バケットに入り、ラベルはその観測以前の境界になる。
func TestBucketSingleObservation(t *testing.T) {
	obs := []int64{time.Date(2014, 6, 5, 14, 30, 0, 0, time.UTC).UnixNano()}
	b, err := NewBucketer("D", Left, Left, 0)
	if err != nil {
		t.Fatal(err)
	}
	labels, groups, err := b.Bucket(obs)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || len(groups[0]) != 1 {
		t.Fatalf("groups = %v, want one group of 1", groups)
	}
	want := time.Date(2014, 6, 5, 0, 0, 0, 0, time.UTC).UnixNano()
	if labels[0] != want {
		t.Errorf("label = %v, want midnight 2014-06-05", time.Unix(0, labels[0]).UTC())
	}
}
