// Package record defines the clickstream record type and the line parser.
//
// Parsing is pure and stateless: one raw tab-delimited line in, either a
// typed record or a rejection reason out. Structural validity is decided
// here; statistical validity (negative counts) is left to the DQ validator.
package record

import (
	"strconv"
	"strings"
)

// Delimiter separates the four fields of a raw source line.
const Delimiter = "\t"

// FieldCount is the fixed number of logical fields per line.
const FieldCount = 4

// Link categories form a closed set. Anything else is rejected.
const (
	TypeLink     = "link"
	TypeExternal = "external"
	TypeOther    = "other"
)

// ValidType reports whether t is within the closed link-category set.
func ValidType(t string) bool {
	switch t {
	case TypeLink, TypeExternal, TypeOther:
		return true
	}
	return false
}

// Record is one parsed clickstream row. Records are ephemeral: constructed
// per input line and never persisted individually beyond the partition.
type Record struct {
	// Prev is the referrer page title.
	Prev string

	// Curr is the destination page title.
	Curr string

	// Type is the link category (link, external, other).
	Type string

	// N is the transition count. May be negative: such rows are admitted
	// here and surface in the validator's range-error metric.
	N int64

	// LoadMonth is the partition key (YYYY-MM), declared by the source.
	LoadMonth string
}

// Reason classifies why a line was rejected.
type Reason string

const (
	// ReasonNone marks an accepted line.
	ReasonNone Reason = ""

	// ReasonWrongFieldCount: the line does not split into exactly four fields.
	ReasonWrongFieldCount Reason = "wrong_field_count"

	// ReasonNonNumericCount: the count field fails integer parsing.
	ReasonNonNumericCount Reason = "non_numeric_count"

	// ReasonNegativeCount: the count is negative. Only produced when the
	// parser is configured with RejectNegative; by default negative counts
	// are admitted and tallied by the validator instead.
	ReasonNegativeCount Reason = "negative_count"

	// ReasonEmptyRequiredField: prev or curr is empty after trimming.
	ReasonEmptyRequiredField Reason = "empty_required_field"

	// ReasonInvalidType: the link category is outside the closed set.
	ReasonInvalidType Reason = "invalid_type"
)

// Reasons lists every rejection reason the parser can produce, in a stable
// order for reporting.
func Reasons() []Reason {
	return []Reason{
		ReasonWrongFieldCount,
		ReasonNonNumericCount,
		ReasonNegativeCount,
		ReasonEmptyRequiredField,
		ReasonInvalidType,
	}
}

// Parser turns raw lines into records. The zero value is the default
// parser (negative counts admitted).
type Parser struct {
	// RejectNegative rejects negative counts at parse time with
	// ReasonNegativeCount instead of admitting them.
	RejectNegative bool
}

// Parse parses one raw line for the given partition month.
// The returned reason is ReasonNone iff the record is valid.
func (p Parser) Parse(line, month string) (Record, Reason) {
	fields := strings.Split(line, Delimiter)
	if len(fields) != FieldCount {
		return Record{}, ReasonWrongFieldCount
	}

	prev := strings.TrimSpace(fields[0])
	curr := strings.TrimSpace(fields[1])
	typ := strings.TrimSpace(fields[2])

	if prev == "" || curr == "" {
		return Record{}, ReasonEmptyRequiredField
	}

	if !ValidType(typ) {
		return Record{}, ReasonInvalidType
	}

	n, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
	if err != nil {
		return Record{}, ReasonNonNumericCount
	}

	if p.RejectNegative && n < 0 {
		return Record{}, ReasonNegativeCount
	}

	return Record{
		Prev:      prev,
		Curr:      curr,
		Type:      typ,
		N:         n,
		LoadMonth: month,
	}, ReasonNone
}
