// Package variantimport implements C11, the Language-Variant Importer &
// Workflow Driver: the heart of the import side. For each MigrationItem it
// categorizes versions, prepares the target variant's workflow state,
// imports the published version before the draft, drives the workflow to
// each version's target step, applies scheduling, and runs post-import
// cleanup (§4.11).
package variantimport

import (
	"context"
	"fmt"
	"time"

	"github.com/artemis/kontent-migrate/internal/elements"
	"github.com/artemis/kontent-migrate/internal/harness"
	"github.com/artemis/kontent-migrate/internal/importctx"
	"github.com/artemis/kontent-migrate/internal/kerrors"
	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/model"
	"github.com/artemis/kontent-migrate/internal/observability"
	"github.com/artemis/kontent-migrate/internal/workflow"
	"go.uber.org/zap"
)

// Options tunes the importer's logging and behavior.
type Options struct {
	ReplaceInvalidLinks bool
	Logger              *observability.Logger
	FailOnError         bool
}

const scheduleLayout = "2006-01-02T15:04:05Z07:00"

// Import drives every MigrationItem's language variant(s) to their
// snapshot workflow state in the target. Runs strictly serial (parallelism
// 1) because operations within and across items must preserve workflow
// ordering (§5 "Ordering guarantees").
func Import(ctx context.Context, api managementapi.ManagementApi, ic *importctx.Context, items []model.MigrationItem, opts Options) error {
	_, err := harness.ProcessItems(ctx, items,
		harness.Options{ParallelLimit: 1, Stage: "import_variants", Logger: opts.Logger, FailOnError: opts.FailOnError},
		func(it model.MigrationItem) string { return it.System.Codename + "/" + it.System.Language.Codename },
		func(ctx context.Context, it model.MigrationItem) (struct{}, error) {
			return struct{}{}, importOne(ctx, api, ic, it, opts)
		},
	)
	return err
}

func importOne(ctx context.Context, api managementapi.ManagementApi, ic *importctx.Context, item model.MigrationItem, opts Options) error {
	itemCodename := item.System.Codename
	langCodename := item.System.Language.Codename

	wf, ok := ic.WorkflowByCodename(item.System.Workflow.Codename)
	if !ok {
		return kerrors.Lookup("import_variant", itemCodename, fmt.Errorf("workflow %q not found in target", item.System.Workflow.Codename))
	}

	published, draft, err := categorize(&wf, item.Versions)
	if err != nil {
		return kerrors.Processing("import_variant", itemCodename, err)
	}

	state := ic.VariantStates[itemCodename+"/"+langCodename]

	if err := prepareTarget(ctx, api, &wf, itemCodename, langCodename, state); err != nil {
		return kerrors.Remote("prepare_target_variant", err)
	}

	ctype, ok := ic.ContentTypeByCodename(item.System.Type.Codename)
	if !ok {
		return kerrors.Lookup("import_variant", itemCodename, fmt.Errorf("content type %q not found in target", item.System.Type.Codename))
	}

	justPublished := false
	if published != nil {
		if err := importVersion(ctx, api, ic, &wf, ctype, itemCodename, langCodename, *published, opts); err != nil {
			return err
		}
		justPublished = true
	}
	if draft != nil {
		if justPublished {
			if err := api.CreateNewVersion(ctx, itemCodename, langCodename); err != nil {
				return kerrors.Remote("create_new_version", err)
			}
		}
		if err := importVersion(ctx, api, ic, &wf, ctype, itemCodename, langCodename, *draft, opts); err != nil {
			return err
		}
	}

	if state.Published != nil && published == nil {
		if err := postImportCleanup(ctx, api, &wf, itemCodename, langCodename, opts); err != nil {
			return kerrors.Remote("post_import_cleanup", err)
		}
	}

	return nil
}

// categorize partitions a snapshot's versions into at most one published
// and one non-published ("draft") version (§4.11 "Version categorization").
func categorize(wf *managementapi.Workflow, versions []model.MigrationItemVersion) (published, draft *model.MigrationItemVersion, err error) {
	for i := range versions {
		v := versions[i]
		if workflow.IsPublished(wf, v.WorkflowStep.Codename) {
			if published != nil {
				return nil, nil, fmt.Errorf("more than one published version")
			}
			published = &v
			continue
		}
		if draft != nil {
			return nil, nil, fmt.Errorf("more than one draft version")
		}
		draft = &v
	}
	return published, draft, nil
}

// prepareTarget resolves the target variant into a neutral state before
// any version import (§4.11 "Target preparation"). It always attempts to
// cancel both schedule kinds regardless of the observed scheduledState,
// tolerating "nothing scheduled" failures, because the platform's
// published-variant endpoint can report a stale or inverted scheduled
// state (§9 "Scheduled state bug").
func prepareTarget(ctx context.Context, api managementapi.ManagementApi, wf *managementapi.Workflow, itemCodename, langCodename string, state importctx.VariantState) error {
	if !state.Exists {
		return nil
	}

	_ = api.CancelScheduledPublish(ctx, itemCodename, langCodename)
	_ = api.CancelScheduledUnpublish(ctx, itemCodename, langCodename)

	switch state.WorkflowState {
	case importctx.WorkflowStatePublished:
		if err := api.CreateNewVersion(ctx, itemCodename, langCodename); err != nil {
			return err
		}
	case importctx.WorkflowStateArchived:
		first, err := workflow.FirstStep(wf)
		if err != nil {
			return err
		}
		if err := api.ChangeWorkflowOfLanguageVariant(ctx, itemCodename, langCodename, first.Codename); err != nil {
			return err
		}
	}
	return nil
}

// importVersion upserts one version's elements, then drives the workflow
// step and applies any scheduling (§4.11 "Version import").
func importVersion(ctx context.Context, api managementapi.ManagementApi, ic *importctx.Context, wf *managementapi.Workflow, ctype managementapi.FlattenedContentType, itemCodename, langCodename string, version model.MigrationItemVersion, opts Options) error {
	wireElements, err := buildElements(ic, ctype, version, opts)
	if err != nil {
		return err
	}

	result, err := api.UpsertLanguageVariant(ctx, itemCodename, langCodename, managementapi.LanguageVariantUpsert{Elements: wireElements})
	if err != nil {
		return kerrors.Remote("upsert_language_variant", err)
	}

	if err := driveWorkflow(ctx, api, wf, itemCodename, langCodename, result.WorkflowStep.ID, version.WorkflowStep.Codename, opts); err != nil {
		return err
	}

	return applySchedule(ctx, api, itemCodename, langCodename, version.Schedule)
}

func buildElements(ic *importctx.Context, ctype managementapi.FlattenedContentType, version model.MigrationItemVersion, opts Options) ([]managementapi.ElementValue, error) {
	out := make([]managementapi.ElementValue, 0, len(version.Elements))
	for _, codename := range version.ElementCodenames() {
		el := version.Elements[codename]
		meta, ok := metaByCodename(ctype, codename)
		if !ok {
			continue
		}
		wireEl, err := elements.Import(ic, meta, codename, el, elements.Options{ReplaceInvalidLinks: opts.ReplaceInvalidLinks})
		if err != nil {
			return nil, err
		}
		out = append(out, wireEl)
	}
	return out, nil
}

func metaByCodename(ctype managementapi.FlattenedContentType, codename string) (managementapi.ElementMetadata, bool) {
	for _, m := range ctype.Elements {
		if m.Codename == codename {
			return m, true
		}
	}
	return managementapi.ElementMetadata{}, false
}

// driveWorkflow moves the language variant from currentStepID to the
// snapshot's target step, per §4.11 step 2.
func driveWorkflow(ctx context.Context, api managementapi.ManagementApi, wf *managementapi.Workflow, itemCodename, langCodename, currentStepID, targetStepCodename string, opts Options) error {
	switch {
	case workflow.IsPublished(wf, targetStepCodename):
		penultimate, err := workflow.PenultimateStepToPublished(wf, currentStepID)
		if err != nil {
			return kerrors.Remote("drive_workflow", err)
		}
		if err := api.ChangeWorkflowOfLanguageVariant(ctx, itemCodename, langCodename, penultimate.Codename); err != nil {
			return kerrors.Remote("drive_workflow", err)
		}
		if err := api.PublishLanguageVariant(ctx, itemCodename, langCodename, nil); err != nil {
			if kerrors.IsBadPublish(err) {
				if opts.Logger != nil {
					opts.Logger.Warn("publishError: server rejected publish", zap.String("item", itemCodename), zap.String("language", langCodename), zap.Error(err))
				}
				return nil
			}
			return kerrors.Remote("publish_language_variant", err)
		}
		return nil

	case workflow.IsArchived(wf, targetStepCodename):
		if err := api.ChangeWorkflowOfLanguageVariant(ctx, itemCodename, langCodename, wf.ArchivedStep.Codename); err != nil {
			return kerrors.Remote("drive_workflow", err)
		}
		return nil

	case workflow.IsScheduled(wf, targetStepCodename):
		return nil

	default:
		if err := api.ChangeWorkflowOfLanguageVariant(ctx, itemCodename, langCodename, targetStepCodename); err != nil {
			return kerrors.Remote("drive_workflow", err)
		}
		return nil
	}
}

func applySchedule(ctx context.Context, api managementapi.ManagementApi, itemCodename, langCodename string, schedule *model.Schedule) error {
	if schedule == nil {
		return nil
	}
	if schedule.HasPublish() {
		sched, err := toScheduling(schedule.PublishTime, schedule.PublishDisplayTimezone)
		if err != nil {
			return kerrors.Processing("apply_schedule", itemCodename, err)
		}
		if err := api.PublishLanguageVariant(ctx, itemCodename, langCodename, sched); err != nil {
			return kerrors.Remote("schedule_publish", err)
		}
	}
	if schedule.HasUnpublish() {
		sched, err := toScheduling(schedule.UnpublishTime, schedule.UnpublishDisplayTimezone)
		if err != nil {
			return kerrors.Processing("apply_schedule", itemCodename, err)
		}
		if err := api.UnpublishLanguageVariant(ctx, itemCodename, langCodename, sched); err != nil {
			return kerrors.Remote("schedule_unpublish", err)
		}
	}
	return nil
}

func toScheduling(value, tz string) (*managementapi.Scheduling, error) {
	t, err := time.Parse(scheduleLayout, value)
	if err != nil {
		return nil, fmt.Errorf("parse schedule time %q: %w", value, err)
	}
	return &managementapi.Scheduling{ScheduledTo: t, DisplayTimezone: tz}, nil
}

// postImportCleanup unpublishes and moves to draft when the target had a
// published variant but the snapshot carries none (§4.11 "Post-import
// cleanup").
func postImportCleanup(ctx context.Context, api managementapi.ManagementApi, wf *managementapi.Workflow, itemCodename, langCodename string, opts Options) error {
	if err := api.UnpublishLanguageVariant(ctx, itemCodename, langCodename, nil); err != nil {
		if kerrors.IsBadPublish(err) {
			if opts.Logger != nil {
				opts.Logger.Warn("publishError: server rejected unpublish during cleanup", zap.String("item", itemCodename), zap.String("language", langCodename), zap.Error(err))
			}
			return nil
		}
		return err
	}
	first, err := workflow.FirstStep(wf)
	if err != nil {
		return err
	}
	return api.ChangeWorkflowOfLanguageVariant(ctx, itemCodename, langCodename, first.Codename)
}
