// Package pipe parses and validates the declarative, polymorphic signature
// grammar pipes use to describe their inputs and output, and models the
// resulting PipeInterface.
package pipe

import "github.com/blockgraph/runtime/internal/domain/block"

// FormatClass is the closed set of data-shape classes a pipe slot may declare.
type FormatClass string

const (
	FormatDataBlock             FormatClass = "DataBlock"
	FormatDataSet               FormatClass = "DataSet"
	FormatDataFrame             FormatClass = "DataFrame"
	FormatRecordsList           FormatClass = "RecordsList"
	FormatRecordsListGenerator  FormatClass = "RecordsListGenerator"
	FormatDataFrameGenerator    FormatClass = "DataFrameGenerator"
	FormatDatabaseTableRef      FormatClass = "DatabaseTableRef"
)

var validFormatClasses = map[FormatClass]bool{
	FormatDataBlock:            true,
	FormatDataSet:              true,
	FormatDataFrame:            true,
	FormatRecordsList:          true,
	FormatRecordsListGenerator: true,
	FormatDataFrameGenerator:   true,
	FormatDatabaseTableRef:     true,
}

// IsValidFormatClass reports whether fc is one of the recognized data format
// classes.
func IsValidFormatClass(fc FormatClass) bool {
	return validFormatClasses[fc]
}

// Annotation is the parsed description of one pipe parameter or return
// value: {format_class, schema_ref, name?, optional, variadic, generic,
// self_ref}.
type Annotation struct {
	Name        string
	FormatClass FormatClass
	Schema      block.Schema
	Optional    bool
	Variadic    bool
	SelfRef     bool
}

// IsGeneric reports whether the annotation's schema reference is a generic
// label to be resolved structurally against the pipe's other slots.
func (a Annotation) IsGeneric() bool {
	return a.Schema.IsGeneric()
}
