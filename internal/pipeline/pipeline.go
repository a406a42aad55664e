// Package pipeline orchestrates one validation-and-staging run:
// Validator, then Transformer, then Partitioner, strictly sequential with
// no retries. The orchestrator owns no shared state across runs; a run
// either completes with a full Outcome or fails fast with a single error
// message.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/dealerops/invstage/internal/dataset"
	"github.com/dealerops/invstage/internal/partition"
	"github.com/dealerops/invstage/internal/schema"
	"github.com/dealerops/invstage/internal/transform"
	"github.com/dealerops/invstage/internal/validate"
)

// Outcome is the consolidated, immutable result of one pipeline run.
type Outcome struct {
	Success           bool                   `json:"success"`
	ValidationPassed  bool                   `json:"validationPassed"`
	Issues            validate.IssueReport   `json:"validationIssues"`
	ErrorMessage      string                 `json:"errorMessage,omitempty"`
	RecordsProcessed  int                    `json:"recordsProcessed"`
	RecordsWithIssues int                    `json:"recordsWithIssues"`
	CleanCount        int                    `json:"cleanCount"`
	FlaggedCount      int                    `json:"flaggedCount"`
	Report            string                 `json:"report,omitempty"`

	// Partitioned datasets and per-record annotations. Excluded from JSON;
	// callers serialize records selectively.
	Processed   dataset.Dataset        `json:"-"`
	Clean       dataset.Dataset        `json:"-"`
	Flagged     dataset.Dataset        `json:"-"`
	Annotations []partition.Annotation `json:"-"`
}

// Pipeline wires the validator, transformer, and partitioner together.
type Pipeline struct {
	validator   *validate.Validator
	transformer *transform.Transformer
	partitioner *partition.Partitioner
	log         *slog.Logger
}

// New creates a Pipeline with its three components sharing one logger.
func New(log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		validator:   validate.New(log),
		transformer: transform.New(log),
		partitioner: partition.New(log),
		log:         log,
	}
}

// Run processes one raw dataset through validate, transform, and
// partition. Validation issues never abort the run; only an empty input
// or an unexpected structural failure yields Success=false.
func (p *Pipeline) Run(raw dataset.Dataset, sc schema.Schema, policy partition.Policy) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("pipeline run aborted", "panic", r)
			outcome = Outcome{
				Success:      false,
				ErrorMessage: fmt.Sprintf("unexpected failure during processing: %v", r),
			}
		}
	}()

	if raw.Len() == 0 {
		return Outcome{
			Success:      false,
			ErrorMessage: "the inventory dataset is empty",
		}
	}

	outcome.RecordsProcessed = raw.Len()

	// Validation runs against the raw dataset so the column-name rule sees
	// pre-cleaned headers; the other rules match by normalized name.
	passed, issues := p.validator.Validate(raw, sc)
	outcome.ValidationPassed = passed
	outcome.Issues = issues
	outcome.RecordsWithIssues = len(issues.AffectedRows())

	ds := p.transformer.CleanColumnNames(raw)
	ds = p.transformer.ConvertTypes(ds, sc)
	ds = p.transformer.RepairMissing(ds)
	outcome.Processed = ds

	clean, flagged, anns := p.partitioner.AnnotateAndSplit(ds, issues, policy)
	outcome.Clean = clean
	outcome.Flagged = flagged
	outcome.Annotations = anns
	outcome.CleanCount = clean.Len()
	outcome.FlaggedCount = flagged.Len()

	outcome.Success = true
	p.log.Info("pipeline run complete",
		"records", outcome.RecordsProcessed,
		"with_issues", outcome.RecordsWithIssues,
		"clean", outcome.CleanCount,
		"flagged", outcome.FlaggedCount,
		"validation_passed", passed,
	)
	return outcome
}
