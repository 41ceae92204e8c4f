package koral

import "fmt"

// Status codes shared with the wire protocol.
const (
	// 600-699: server errors.
	StatusUnableToReadIndex    = 600
	StatusUnableToFindIndex    = 601
	StatusUnableToAddDoc       = 602
	StatusUnableToCommit       = 603
	StatusMissingParameter     = 610
	StatusDeserializationError = 613
	StatusUnableToGenerateJSON = 620
	StatusUnableToParseJSON    = 621
	StatusDocumentNotFound     = 630
	StatusUnableToExtend       = 651
	StatusResponseTimeExceeded = 682

	// 700-799: query deserialization.
	StatusNoQuery                  = 700
	StatusMissingType              = 701
	StatusInvalidBoundary          = 702
	StatusMissingOperation         = 703
	StatusMissingOperands          = 704
	StatusOperandCount             = 705
	StatusUnknownFrame             = 706
	StatusInvalidDistances         = 707
	StatusMissingDistance          = 708
	StatusClassNumberExceeded      = 709
	StatusMissingClass             = 710
	StatusUnknownGroupOperation    = 711
	StatusUnknownReferenceOp       = 712
	StatusUnsupportedQuery         = 713
	StatusInvalidSpanReference     = 714
	StatusUnsupportedAttributeType = 715
	StatusUnknownRelation          = 716
	StatusInvalidMatchID           = 730
	StatusMissingKey               = 740
	StatusUnknownMatchRelation     = 741
	StatusMissingTermOperands      = 742
	StatusMissingTermRelation      = 743
	StatusUnsupportedOperand       = 744
	StatusUnsupportedTokenType     = 745
	StatusUnsupportedTermType      = 746
	StatusNullAttribute            = 747
	StatusUnsupportedExclusion     = 760
	StatusUnsupportedClassRefOp    = 761
	StatusUnsupportedSpanRef       = 762
	StatusUnsupportedDistanceExcl  = 763
	StatusUnsupportedClassRefCheck = 764
	StatusUnsupportedRelations     = 765
	StatusPeripheralReference      = 766
	StatusUnsupportedCaseFolding   = 767
	StatusOverlapVariant           = 769
	StatusUnsupportedArity         = 770
	StatusMatchesEverywhere        = 780
	StatusIgnoredOptionality       = 781
	StatusIgnoredExclusivity       = 782
	StatusMatchesNowhere           = 783
	StatusUnknownSerialization     = 799

	// 800-899: virtual collections.
	StatusMissingCollection = 800
	StatusInvalidRegex      = 807

	// 900-999: corpus data.
	StatusInvalidOffset  = 952
	StatusInvalidFoundry = 970
)

// QueryError is a compile error with its wire status code.
type QueryError struct {
	Code    int
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error %d: %s", e.Code, e.Message)
}

func newQueryError(code int, msg string) *QueryError {
	return &QueryError{Code: code, Message: msg}
}
