package ndarray

import (
	"math"
	"testing"
)

func TestKernels(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5}
	tests := []struct {
		name   string
		kernel Kernel
		want   float64
	}{
		{name: "sum", kernel: Sum, want: 14},
		{name: "prod", kernel: Prod, want: 60},
		{name: "min", kernel: Min, want: 1},
		{name: "max", kernel: Max, want: 5},
		{name: "mean", kernel: Mean, want: 2.8},
		{name: "median", kernel: Median, want: 3},
		{name: "argmin", kernel: ArgMin, want: 1},
		{name: "argmax", kernel: ArgMax, want: 4},
		{name: "any", kernel: Any, want: 1},
		{name: "all", kernel: All, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.kernel(values)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("%s(%v) = %v, want %v", tt.name, values, got, tt.want)
			}
		})
	}
}

// 分散と標準偏差は母集団定義（ddof=0）。
func TestVarStdPopulation(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	// mean=2.5, sum sq dev = 5, population variance = 5/4
	if got := Var(values); math.Abs(got-1.25) > 1e-12 {
		t.Errorf("Var() = %v, want 1.25", got)
	}
	if got := Std(values); math.Abs(got-math.Sqrt(1.25)) > 1e-12 {
		t.Errorf("Std() = %v, want sqrt(1.25)", got)
	}
	// 単一要素の分散は0
	if got := Var([]float64{7}); got != 0 {
		t.Errorf("Var([7]) = %v, want 0", got)
	}
}

func TestMedianEvenLength(t *testing.T) {
	if got := Median([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Errorf("Median() = %v, want 2.5", got)
	}
	// Medianは入力を破壊しない
	in := []float64{2, 1}
	Median(in)
	if in[0] != 2 || in[1] != 1 {
		t.Error("Median() must not mutate its input")
	}
}

func TestReduceAllAxes(t *testing.T) {
	a, _ := NewFloat64([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	got, err := Reduce(a, nil, Sum, ReduceOptions{OutDType: Float64})
	if err != nil {
		t.Fatal(err)
	}
	if got.NDim() != 0 {
		t.Fatalf("Reduce over all axes should yield rank-0, got rank %d", got.NDim())
	}
	if v, _ := got.Float(); v != 21 {
		t.Errorf("total sum = %v, want 21", v)
	}
}

func TestReduceSingleAxis(t *testing.T) {
	a, _ := NewFloat64([]float64{1, 2, 3, 4, 5, 6}, 2, 3)

	rows, err := Reduce(a, []int{1}, Sum, ReduceOptions{OutDType: Float64})
	if err != nil {
		t.Fatal(err)
	}
	wantRows, _ := NewFloat64([]float64{6, 15}, 2)
	if !rows.Equal(wantRows) {
		t.Errorf("Reduce(axis=1) = %v, want row sums [6 15]", rows)
	}

	cols, err := Reduce(a, []int{0}, Sum, ReduceOptions{OutDType: Float64})
	if err != nil {
		t.Fatal(err)
	}
	wantCols, _ := NewFloat64([]float64{5, 7, 9}, 3)
	if !cols.Equal(wantCols) {
		t.Errorf("Reduce(axis=0) = %v, want column sums [5 7 9]", cols)
	}
}

func TestReduceSkipNA(t *testing.T) {
	a, _ := NewFloat64([]float64{1, math.NaN(), 3}, 3)

	skipped, err := Reduce(a, nil, Sum, ReduceOptions{SkipNA: true, OutDType: Float64})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := skipped.Float(); v != 4 {
		t.Errorf("skipna sum = %v, want 4", v)
	}

	propagated, err := Reduce(a, nil, Sum, ReduceOptions{PropagateNaN: true, OutDType: Float64})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := propagated.Float(); !math.IsNaN(v) {
		t.Errorf("propagating sum = %v, want NaN", v)
	}
}

// 全要素が欠損のセルはNaNになる。
func TestReduceAllMissing(t *testing.T) {
	a, _ := NewFloat64([]float64{math.NaN(), math.NaN()}, 2)
	got, err := Reduce(a, nil, Sum, ReduceOptions{SkipNA: true, OutDType: Float64})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := got.Float(); !math.IsNaN(v) {
		t.Errorf("all-missing sum = %v, want NaN", v)
	}
}

func TestReduceOutDType(t *testing.T) {
	a, _ := NewFloat64([]float64{1, 0, 2}, 3)

	anyOut, err := Reduce(a, nil, Any, ReduceOptions{OutDType: Bool})
	if err != nil {
		t.Fatal(err)
	}
	if anyOut.DType() != Bool {
		t.Fatalf("any dtype = %s, want bool", anyOut.DType())
	}
	if v, _ := anyOut.Bool(); !v {
		t.Error("any([1 0 2]) = false, want true")
	}

	allOut, err := Reduce(a, nil, All, ReduceOptions{OutDType: Bool})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := allOut.Bool(); v {
		t.Error("all([1 0 2]) = true, want false")
	}

	argOut, err := Reduce(a, nil, ArgMax, ReduceOptions{OutDType: Int64})
	if err != nil {
		t.Fatal(err)
	}
	if argOut.DType() != Int64 {
		t.Fatalf("argmax dtype = %s, want int64", argOut.DType())
	}
	if v, _ := argOut.Int(); v != 2 {
		t.Errorf("argmax = %v, want 2", v)
	}
}

func TestReduceNonNumeric(t *testing.T) {
	s, _ := NewString([]string{"a", "b"}, 2)
	if _, err := Reduce(s, nil, Sum, ReduceOptions{OutDType: Float64}); err == nil {
		t.Error("Reduce on string array should fail")
	}
}

func TestReduceIntInput(t *testing.T) {
	a, _ := NewInt64([]int64{1, 2, 3}, 3)
	got, err := Reduce(a, nil, Mean, ReduceOptions{OutDType: Float64})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := got.Float(); v != 2 {
		t.Errorf("mean of int array = %v, want 2", v)
	}
}

// 並列分割の閾値を超えるサイズでも逐次結果と一致する。
func TestReduceLargeParallel(t *testing.T) {
	rows := parallelReduceThreshold + 100
	data := make([]float64, rows*2)
	for i := range data {
		data[i] = float64(i % 7)
	}
	a, _ := NewFloat64(data, rows, 2)

	got, err := Reduce(a, []int{1}, Sum, ReduceOptions{OutDType: Float64})
	if err != nil {
		t.Fatal(err)
	}
	if got.Size() != rows {
		t.Fatalf("output size = %d, want %d", got.Size(), rows)
	}
	for i := 0; i < rows; i++ {
		want := data[i*2] + data[i*2+1]
		if got.Float64At(i) != want {
			t.Fatalf("row %d sum = %v, want %v", i, got.Float64At(i), want)
		}
	}
}

func TestReduceAxisOutOfRange(t *testing.T) {
	a, _ := NewFloat64([]float64{1, 2}, 2)
	if _, err := Reduce(a, []int{1}, Sum, ReduceOptions{OutDType: Float64}); err == nil {
		t.Error("Reduce with out-of-range axis should fail")
	}
}
