// Package log defines standard attribute keys for labeled-array operations.
//
// This file contains predefined attribute keys that provide consistency across
// all logging operations in dimarray. Using these standard keys enables better
// log analysis, monitoring, and debugging of array workflows.
//
// The keys follow a hierarchical naming convention (e.g., "array.dims",
// "group.count") to enable structured log analysis and filtering.

package log

// Operation Context
// These attributes identify the container type and operation being performed.
const (
	// ContainerKey identifies the container type an operation runs against.
	// Examples: "DataArray", "Dataset"
	ContainerKey = "array.container"

	// OperationKey specifies the array operation being performed.
	// Standard values: "reduce", "groupby", "resample", "squeeze", "isel"
	OperationKey = "array.operation"

	// AggregationKey names the aggregation applied by a grouped operation.
	// Examples: "sum", "mean", "first", "last", "custom"
	AggregationKey = "array.aggregation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "dimarray", "ndarray", "freq"
	ComponentKey = "array.component"
)

// Data Shape and Characteristics
// These attributes describe the structure of the arrays being processed.
const (
	// DimKey names the dimension an operation targets.
	DimKey = "data.dim"

	// DimsKey lists the full ordered dimension names of an array.
	DimsKey = "data.dims"

	// ShapeKey records the shape of the value buffer.
	ShapeKey = "data.shape"

	// SamplesKey indicates the length of the dimension being grouped or reduced.
	SamplesKey = "data.samples"

	// DTypeKey specifies the value type of the data being processed.
	// Examples: "float64", "int64", "time", "string", "bool"
	DTypeKey = "data.dtype"

	// VariablesKey indicates the number of variables in a Dataset.
	VariablesKey = "data.variables"
)

// Grouping and Resampling Context
const (
	// GroupsKey records the number of groups or time buckets produced
	// by a partition.
	GroupsKey = "group.count"

	// EmptyGroupsKey records how many time buckets received no observations
	// and were filled with the missing-value sentinel.
	EmptyGroupsKey = "group.empty"

	// FrequencyKey records the resampling frequency string, e.g. "6H".
	FrequencyKey = "group.frequency"

	// SqueezeKey records whether length-1 group slices drop their axis.
	SqueezeKey = "group.squeeze"
)

// Error and Warning Context
// These attributes provide additional context for error and warning messages.
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	// Examples: "DIMENSION_NOT_FOUND", "SHAPE_MISMATCH", "UNKNOWN_AGGREGATION"
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	// Examples: "DimensionNotFoundError", "ShapeMismatchError"
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	// Automatically populated by the error logging functions.
	StacktraceKey = "error.stacktrace"
)

// Standard attribute value constants for common operations.
// Using these constants ensures consistency across the codebase.
const (
	// Standard operations
	OperationReduce   = "reduce"
	OperationGroupBy  = "groupby"
	OperationResample = "resample"
	OperationSqueeze  = "squeeze"
	OperationIsel     = "isel"
	OperationConcat   = "concat"

	// Standard error codes
	ErrorDimensionNotFound   = "DIMENSION_NOT_FOUND"
	ErrorAttributeNotFound   = "ATTRIBUTE_NOT_FOUND"
	ErrorShapeMismatch       = "SHAPE_MISMATCH"
	ErrorUnknownAggregation  = "UNKNOWN_AGGREGATION"
	ErrorUnsupportedGroupKey = "UNSUPPORTED_GROUP_KEY"
	ErrorInvalidSqueeze      = "INVALID_SQUEEZE"
)
