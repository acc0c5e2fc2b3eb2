// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// xarray/pandasの例外体系にインスパイアされており、次元名・集約・グルーピングに
// 関する構造化されたエラー情報を提供します。
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("dimarray-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
// これにより、DataConversionWarningなどの警告の処理方法を制御できます。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	// zerologが設定されている場合は優先的に使用
	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	// フォールバック: 従来のハンドラ
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// DataConversionWarning はデータの型が暗黙的に変換された場合に発生する警告です。
// 例えば、欠損値(NaN)を表現するために整数配列が浮動小数点へ昇格された場合など。
type DataConversionWarning struct {
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("data converted from %s to %s. Reason: %s", w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning は新しいDataConversionWarningを作成します。
func NewDataConversionWarning(from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{FromType: from, ToType: to, Reason: reason}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// DimensionNotFoundError は配列に存在しない次元名を指定した場合のエラーです。
// デバッグのため、見つからなかった名前と配列が持つ全次元名の両方を保持します。
type DimensionNotFoundError struct {
	Dim  string
	Dims []string
}

func (e *DimensionNotFoundError) Error() string {
	return fmt.Sprintf("dimarray: dimension %q not found in array dimensions [%s]",
		e.Dim, strings.Join(e.Dims, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionNotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("dimension", e.Dim).
		Strs("dimensions", e.Dims).
		Str("type", "DimensionNotFoundError")
}

// NewDimensionNotFoundError は新しいDimensionNotFoundErrorを作成し、スタックトレースを付与します。
func NewDimensionNotFoundError(dim string, dims []string) error {
	err := &DimensionNotFoundError{Dim: dim, Dims: append([]string(nil), dims...)}
	return errors.WithStack(err)
}

// AttributeNotFoundError は属性フォールバックチェーンが全ソースを探索しても
// 名前を解決できなかった場合のエラーです。
type AttributeNotFoundError struct {
	TypeName string
	Attr     string
}

func (e *AttributeNotFoundError) Error() string {
	return fmt.Sprintf("dimarray: %s object has no attribute %q", e.TypeName, e.Attr)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *AttributeNotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type_name", e.TypeName).
		Str("attribute", e.Attr).
		Str("type", "AttributeNotFoundError")
}

// NewAttributeNotFoundError は新しいAttributeNotFoundErrorを作成し、スタックトレースを付与します。
func NewAttributeNotFoundError(typeName, attr string) error {
	err := &AttributeNotFoundError{TypeName: typeName, Attr: attr}
	return errors.WithStack(err)
}

// ShapeMismatchError はグルーピングキー配列の長さが対象次元の長さと
// 一致しない場合など、形状の不整合を表すエラーです。
type ShapeMismatchError struct {
	Op       string
	Dim      string
	Expected int
	Got      int
}

func (e *ShapeMismatchError) Error() string {
	if e.Dim != "" {
		return fmt.Sprintf("dimarray: %s: length mismatch on dimension %q. Expected %d, got %d",
			e.Op, e.Dim, e.Expected, e.Got)
	}
	return fmt.Sprintf("dimarray: %s: shape mismatch. Expected %d, got %d", e.Op, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ShapeMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("dimension", e.Dim).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("type", "ShapeMismatchError")
}

// NewShapeMismatchError は新しいShapeMismatchErrorを作成し、スタックトレースを付与します。
func NewShapeMismatchError(op, dim string, expected, got int) error {
	err := &ShapeMismatchError{Op: op, Dim: dim, Expected: expected, Got: got}
	return errors.WithStack(err)
}

// UnknownAggregationError は名前指定の集約が認識できない場合のエラーです。
type UnknownAggregationError struct {
	Name  string
	Known []string
}

func (e *UnknownAggregationError) Error() string {
	return fmt.Sprintf("dimarray: unknown aggregation %q. Valid aggregations: [%s]",
		e.Name, strings.Join(e.Known, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnknownAggregationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("aggregation", e.Name).
		Strs("known", e.Known).
		Str("type", "UnknownAggregationError")
}

// NewUnknownAggregationError は新しいUnknownAggregationErrorを作成し、スタックトレースを付与します。
func NewUnknownAggregationError(name string, known []string) error {
	err := &UnknownAggregationError{Name: name, Known: append([]string(nil), known...)}
	return errors.WithStack(err)
}

// UnsupportedGroupKeyError は時刻型でない座標に対して時間バケットの
// リサンプリングを要求した場合など、グルーピングキーの型が不正な場合のエラーです。
type UnsupportedGroupKeyError struct {
	Op    string
	DType string
}

func (e *UnsupportedGroupKeyError) Error() string {
	return fmt.Sprintf("dimarray: %s: unsupported group key of dtype %s", e.Op, e.DType)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnsupportedGroupKeyError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("dtype", e.DType).
		Str("type", "UnsupportedGroupKeyError")
}

// NewUnsupportedGroupKeyError は新しいUnsupportedGroupKeyErrorを作成し、スタックトレースを付与します。
func NewUnsupportedGroupKeyError(op, dtype string) error {
	err := &UnsupportedGroupKeyError{Op: op, DType: dtype}
	return errors.WithStack(err)
}

// InvalidSqueezeError は長さが1より大きい次元をsqueezeしようとした場合のエラーです。
type InvalidSqueezeError struct {
	Dim    string
	Length int
}

func (e *InvalidSqueezeError) Error() string {
	return fmt.Sprintf("dimarray: cannot select dimension %q (length %d) to squeeze out: length must be 1",
		e.Dim, e.Length)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidSqueezeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("dimension", e.Dim).
		Int("length", e.Length).
		Str("type", "InvalidSqueezeError")
}

// NewInvalidSqueezeError は新しいInvalidSqueezeErrorを作成し、スタックトレースを付与します。
func NewInvalidSqueezeError(dim string, length int) error {
	err := &InvalidSqueezeError{Dim: dim, Length: length}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrZeroDimIteration はランク0配列に対する反復のエラーです。
	ErrZeroDimIteration = New("iteration over a 0-dimensional array")

	// ErrDimAxisExclusive はdimとaxisの両方が指定された場合のエラーです。
	ErrDimAxisExclusive = New("cannot supply both 'dim' and 'axis' arguments")
)
