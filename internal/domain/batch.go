package domain

import (
	"fmt"
	"strings"
)

// OperationKind is the remediation intent of a batch.
type OperationKind string

const (
	OpAudit         OperationKind = "audit"
	OpFix           OperationKind = "fix"
	OpFixAuto       OperationKind = "fix-auto"
	OpGenerateImage OperationKind = "generate-image"
)

// Operation selects what a batch does to each listing. RuleKey is set only
// for OpFix.
type Operation struct {
	Kind    OperationKind `json:"kind"`
	RuleKey RuleKey       `json:"rule_key,omitempty"`
}

func (o Operation) String() string {
	if o.Kind == OpFix {
		return fmt.Sprintf("%s:%s", o.Kind, o.RuleKey)
	}
	return string(o.Kind)
}

// ParseOperation parses selectors such as "audit", "fix-auto" and
// "fix:has_tags". Rule keys are not checked against a registry here.
func ParseOperation(s string) (Operation, error) {
	s = strings.TrimSpace(s)
	switch OperationKind(s) {
	case OpAudit, OpFixAuto, OpGenerateImage:
		return Operation{Kind: OperationKind(s)}, nil
	}
	if rest, ok := strings.CutPrefix(s, string(OpFix)+":"); ok && rest != "" {
		return Operation{Kind: OpFix, RuleKey: RuleKey(rest)}, nil
	}
	return Operation{}, fmt.Errorf("%w %q (valid: audit, fix:<rule>, fix-auto, generate-image)", ErrUnknownOperation, s)
}

// Strategy is the batch pacing model.
type Strategy string

const (
	StrategyConcurrent Strategy = "concurrent"
	StrategySequential Strategy = "sequential"
)

type ProgressEventType string

const (
	EventStart      ProgressEventType = "start"
	EventProcessing ProgressEventType = "processing"
	EventProgress   ProgressEventType = "progress"
	EventComplete   ProgressEventType = "complete"
)

// ItemResult is the outcome for one listing in a batch.
type ItemResult struct {
	Index     int          `json:"index"`
	ListingID string       `json:"listing_id"`
	Success   bool         `json:"success"`
	NoOp      bool         `json:"no_op,omitempty"`
	Message   string       `json:"message"`
	Score     *int         `json:"score,omitempty"`
	Outcomes  []FixOutcome `json:"outcomes,omitempty"`
}

// BatchSummary is the terminal report of a batch.
type BatchSummary struct {
	JobID     string       `json:"job_id"`
	Operation string       `json:"operation"`
	Total     int          `json:"total"`
	Processed int          `json:"processed"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Cancelled bool         `json:"cancelled,omitempty"`
	Results   []ItemResult `json:"results"`
}

// ProgressEvent is emitted by the batch processor, in order:
// start, then processing/progress per item, then complete.
type ProgressEvent struct {
	Type      ProgressEventType `json:"type"`
	JobID     string            `json:"job_id"`
	Total     int               `json:"total,omitempty"`
	Index     int               `json:"index,omitempty"`
	ListingID string            `json:"listing_id,omitempty"`
	Processed int               `json:"processed,omitempty"`
	Succeeded int               `json:"succeeded,omitempty"`
	Failed    int               `json:"failed,omitempty"`
	Item      *ItemResult       `json:"item,omitempty"`
	Summary   *BatchSummary     `json:"summary,omitempty"`
}
