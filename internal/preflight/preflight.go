// Package preflight runs pre-migration validation checks and produces a
// dry-run preview of the operations a run would perform, before any
// mutating call reaches the target environment. Adapted from the
// teacher's pre-migration Auditor (named checks, pass/warn/fail status,
// streamed results) and its dry-run preview, generalized from Docker
// resources (images/volumes/networks) to migration entities (items,
// assets, language variants).
package preflight

import (
	"context"
	"fmt"
	"time"

	"github.com/artemis/kontent-migrate/internal/importctx"
	"github.com/artemis/kontent-migrate/internal/model"
	"go.uber.org/zap"
)

// CheckStatus is one audit check's outcome.
type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckWarning CheckStatus = "warning"
	CheckFailed  CheckStatus = "failed"
)

// Check is a single named validation result.
type Check struct {
	Name      string      `json:"name"`
	Status    CheckStatus `json:"status"`
	Message   string      `json:"message"`
	IsBlocker bool        `json:"is_blocker"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
}

// Result is the outcome of a full preflight run.
type Result struct {
	Checks     []Check  `json:"checks"`
	Warnings   []string `json:"warnings"`
	Blockers   []string `json:"blockers"`
	CanProceed bool     `json:"can_proceed"`
}

// Auditor runs the named checks that make up a preflight pass.
type Auditor struct {
	logger *zap.Logger
}

// NewAuditor creates an Auditor.
func NewAuditor(logger *zap.Logger) *Auditor {
	return &Auditor{logger: logger}
}

// AuditImport validates a snapshot against a target environment's resolved
// state (C8's Context) before C9-C11 run, streaming each check's result on
// resultCh if non-nil.
func (a *Auditor) AuditImport(ctx context.Context, data model.MigrationData, ic *importctx.Context, resultCh chan<- Check) (*Result, error) {
	result := &Result{CanProceed: true}

	checks := []func(context.Context) Check{
		func(ctx context.Context) Check { return a.checkContentTypesResolve(data, ic) },
		func(ctx context.Context) Check { return a.checkWorkflowsResolve(data, ic) },
		func(ctx context.Context) Check { return a.checkVersionCounts(data) },
		func(ctx context.Context) Check { return a.checkCollectionsResolve(data, ic) },
	}

	for _, fn := range checks {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("preflight cancelled: %w", ctx.Err())
		default:
		}

		check := fn(ctx)
		result.Checks = append(result.Checks, check)
		if resultCh != nil {
			resultCh <- check
		}

		switch check.Status {
		case CheckWarning:
			result.Warnings = append(result.Warnings, check.Message)
		case CheckFailed:
			if check.IsBlocker {
				result.Blockers = append(result.Blockers, check.Message)
				result.CanProceed = false
			}
		}
	}

	if a.logger != nil {
		a.logger.Info("preflight completed",
			zap.Bool("can_proceed", result.CanProceed),
			zap.Int("warnings", len(result.Warnings)),
			zap.Int("blockers", len(result.Blockers)))
	}

	return result, nil
}

func (a *Auditor) checkContentTypesResolve(data model.MigrationData, ic *importctx.Context) Check {
	check := Check{Name: "Content Types Resolve", IsBlocker: true, StartTime: time.Now()}
	missing := map[string]struct{}{}
	for _, item := range data.Items {
		if _, ok := ic.ContentTypeByCodename(item.System.Type.Codename); !ok {
			missing[item.System.Type.Codename] = struct{}{}
		}
	}
	check.EndTime = time.Now()
	if len(missing) > 0 {
		check.Status = CheckFailed
		check.Message = fmt.Sprintf("%d content type(s) referenced by the snapshot do not exist in the target", len(missing))
		return check
	}
	check.Status = CheckPassed
	check.Message = "All referenced content types exist in the target"
	return check
}

func (a *Auditor) checkWorkflowsResolve(data model.MigrationData, ic *importctx.Context) Check {
	check := Check{Name: "Workflows Resolve", IsBlocker: true, StartTime: time.Now()}
	missing := map[string]struct{}{}
	for _, item := range data.Items {
		if _, ok := ic.WorkflowByCodename(item.System.Workflow.Codename); !ok {
			missing[item.System.Workflow.Codename] = struct{}{}
		}
	}
	check.EndTime = time.Now()
	if len(missing) > 0 {
		check.Status = CheckFailed
		check.Message = fmt.Sprintf("%d workflow(s) referenced by the snapshot do not exist in the target", len(missing))
		return check
	}
	check.Status = CheckPassed
	check.Message = "All referenced workflows exist in the target"
	return check
}

func (a *Auditor) checkCollectionsResolve(data model.MigrationData, ic *importctx.Context) Check {
	check := Check{Name: "Collections Resolve", IsBlocker: false, StartTime: time.Now()}
	known := map[string]struct{}{}
	for _, c := range ic.Env.Collections {
		known[c.Codename] = struct{}{}
	}
	missing := map[string]struct{}{}
	for _, item := range data.Items {
		if _, ok := known[item.System.Collection.Codename]; !ok {
			missing[item.System.Collection.Codename] = struct{}{}
		}
	}
	check.EndTime = time.Now()
	if len(missing) > 0 {
		check.Status = CheckWarning
		check.Message = fmt.Sprintf("%d collection(s) referenced by the snapshot do not exist in the target and will fail per-item", len(missing))
		return check
	}
	check.Status = CheckPassed
	check.Message = "All referenced collections exist in the target"
	return check
}

// checkVersionCounts checks §3 invariant 2 by count only: an item with more
// than 2 versions fails. Whether an item's versions are one published and
// one draft is not checked here.
func (a *Auditor) checkVersionCounts(data model.MigrationData) Check {
	check := Check{Name: "Version Counts", IsBlocker: true, StartTime: time.Now()}
	violations := 0
	for _, item := range data.Items {
		if len(item.Versions) > 2 {
			violations++
		}
	}
	check.EndTime = time.Now()
	if violations > 0 {
		check.Status = CheckFailed
		check.Message = fmt.Sprintf("%d item(s) carry more than 2 versions", violations)
		return check
	}
	check.Status = CheckPassed
	check.Message = "Every item carries at most 2 versions"
	return check
}

// Operation is one planned mutating call a dry run would have issued.
type Operation struct {
	Type      string `json:"type"` // add_item, upsert_item, upload_asset, edit_asset, import_version, schedule_publish, schedule_unpublish
	Codename  string `json:"codename"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// DryRunResult previews the operations an import would perform without
// issuing them.
type DryRunResult struct {
	Operations        []Operation   `json:"operations"`
	TotalUploadBytes  int64         `json:"total_upload_bytes"`
	EstimatedDuration time.Duration `json:"estimated_duration"`
	Warnings          []string      `json:"warnings"`
}

// PlanImport builds a DryRunResult by walking the snapshot against the
// probed target state, without issuing any mutating call.
func PlanImport(data model.MigrationData, ic *importctx.Context, uploadBandwidthMbps int) DryRunResult {
	var plan DryRunResult

	for _, item := range data.Items {
		state := ic.ItemStates[item.System.Codename]
		op := Operation{Codename: item.System.Codename}
		if state.Exists {
			op.Type = "upsert_item"
		} else {
			op.Type = "add_item"
		}
		plan.Operations = append(plan.Operations, op)

		for _, v := range item.Versions {
			plan.Operations = append(plan.Operations, Operation{
				Type:     "import_version",
				Codename: item.System.Codename,
				Notes:    fmt.Sprintf("target step %q", v.WorkflowStep.Codename),
			})
			if v.Schedule.HasPublish() {
				plan.Operations = append(plan.Operations, Operation{Type: "schedule_publish", Codename: item.System.Codename})
			}
			if v.Schedule.HasUnpublish() {
				plan.Operations = append(plan.Operations, Operation{Type: "schedule_unpublish", Codename: item.System.Codename})
			}
		}
	}

	for _, asset := range data.Assets {
		state := ic.AssetStates[asset.Codename]
		op := Operation{Codename: asset.Codename, SizeBytes: int64(len(asset.BinaryData))}
		if state.Exists {
			op.Type = "edit_asset"
		} else {
			op.Type = "upload_asset"
			plan.TotalUploadBytes += op.SizeBytes
		}
		plan.Operations = append(plan.Operations, op)
	}

	plan.EstimatedDuration = estimateTransferTime(plan.TotalUploadBytes, uploadBandwidthMbps)
	return plan
}

// estimateTransferTime projects upload duration from total bytes and an
// assumed upstream bandwidth, with a 20% overhead allowance for TLS and
// retry jitter.
func estimateTransferTime(totalBytes int64, bandwidthMbps int) time.Duration {
	if bandwidthMbps <= 0 {
		bandwidthMbps = 100
	}
	bytesPerSecond := int64(bandwidthMbps) * 1024 * 1024 / 8
	if bytesPerSecond <= 0 {
		return 0
	}
	seconds := float64(totalBytes) / float64(bytesPerSecond) * 1.2
	return time.Duration(seconds * float64(time.Second))
}
