package variantimport

import (
	"context"
	"testing"

	"github.com/artemis/kontent-migrate/internal/exportctx"
	"github.com/artemis/kontent-migrate/internal/importctx"
	"github.com/artemis/kontent-migrate/internal/kerrors"
	"github.com/artemis/kontent-migrate/internal/managementapi"
	"github.com/artemis/kontent-migrate/internal/managementapitest"
	"github.com/artemis/kontent-migrate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWorkflow() managementapi.Workflow {
	return managementapi.Workflow{
		ID:       "wf-1",
		Codename: "default",
		Steps: []managementapi.WorkflowStep{
			{ID: "s1", Codename: "draft", TransitionsTo: []string{"pub"}},
		},
		PublishedStep: managementapi.WorkflowStep{ID: "pub", Codename: "published", TransitionsTo: []string{"s1"}},
		ArchivedStep:  managementapi.WorkflowStep{ID: "arch", Codename: "archived", TransitionsTo: []string{"s1"}},
		ScheduledStep: managementapi.WorkflowStep{ID: "sched", Codename: "scheduled", TransitionsTo: []string{"pub"}},
	}
}

func testContentType() managementapi.FlattenedContentType {
	return managementapi.FlattenedContentType{
		Codename: "page",
		Elements: []managementapi.ElementMetadata{{Codename: "title", Type: "text"}},
	}
}

func newImportCtx() *importctx.Context {
	env := exportctx.EnvironmentData{Workflows: []managementapi.Workflow{testWorkflow()}}
	return &importctx.Context{
		Env:           env,
		ItemStates:    map[string]importctx.ItemState{},
		VariantStates: map[string]importctx.VariantState{},
		AssetStates:   map[string]importctx.AssetState{},
	}
}

func sampleItem(step string) model.MigrationItem {
	return model.MigrationItem{
		System: model.ItemSystem{
			Codename:   "home",
			Language:   model.CodenameRef{Codename: "en"},
			Type:       model.CodenameRef{Codename: "page"},
			Workflow:   model.CodenameRef{Codename: "default"},
			Collection: model.CodenameRef{Codename: "default"},
		},
		Versions: []model.MigrationItemVersion{{
			Elements:     map[string]model.MigrationElement{"title": {Type: model.ElementText, StringValue: "Hi"}},
			WorkflowStep: model.CodenameRef{Codename: step},
		}},
	}
}

func TestImportDraftVersionDoesNotPublish(t *testing.T) {
	fake := &managementapitest.Fake{
		UpsertLanguageVariantFn: func(ctx context.Context, itemCodename, langCodename string, data managementapi.LanguageVariantUpsert) (*managementapi.LanguageVariant, error) {
			return &managementapi.LanguageVariant{WorkflowStep: managementapi.CodenameRef{ID: "s1", Codename: "draft"}}, nil
		},
	}
	ic := newImportCtx()
	ic.Env.ContentTypes = []managementapi.FlattenedContentType{testContentType()}

	err := Import(context.Background(), fake, ic, []model.MigrationItem{sampleItem("draft")}, Options{})
	require.NoError(t, err)

	for _, c := range fake.Calls {
		assert.NotContains(t, c, "PublishLanguageVariant")
	}
}

func TestImportPublishedVersionDrivesWorkflowToPublished(t *testing.T) {
	fake := &managementapitest.Fake{
		UpsertLanguageVariantFn: func(ctx context.Context, itemCodename, langCodename string, data managementapi.LanguageVariantUpsert) (*managementapi.LanguageVariant, error) {
			return &managementapi.LanguageVariant{WorkflowStep: managementapi.CodenameRef{ID: "s1", Codename: "draft"}}, nil
		},
	}
	ic := newImportCtx()
	ic.Env.ContentTypes = []managementapi.FlattenedContentType{testContentType()}

	err := Import(context.Background(), fake, ic, []model.MigrationItem{sampleItem("published")}, Options{})
	require.NoError(t, err)

	var sawChangeToStep1, sawPublish bool
	for _, c := range fake.Calls {
		if c == "ChangeWorkflowOfLanguageVariant:home/en/draft" {
			sawChangeToStep1 = true
		}
		if c == "PublishLanguageVariant:home/en" {
			sawPublish = true
		}
	}
	assert.True(t, sawChangeToStep1, "should move to penultimate step before publishing")
	assert.True(t, sawPublish)
}

func TestImportSwallowsBadPublishError(t *testing.T) {
	fake := &managementapitest.Fake{
		UpsertLanguageVariantFn: func(ctx context.Context, itemCodename, langCodename string, data managementapi.LanguageVariantUpsert) (*managementapi.LanguageVariant, error) {
			return &managementapi.LanguageVariant{WorkflowStep: managementapi.CodenameRef{ID: "s1", Codename: "draft"}}, nil
		},
		PublishLanguageVariantFn: func(ctx context.Context, itemCodename, langCodename string, sched *managementapi.Scheduling) error {
			return kerrors.ErrBadPublish
		},
	}
	ic := newImportCtx()
	ic.Env.ContentTypes = []managementapi.FlattenedContentType{testContentType()}

	err := Import(context.Background(), fake, ic, []model.MigrationItem{sampleItem("published")}, Options{})
	require.NoError(t, err, "bad publish must be swallowed, not surfaced")
}

func TestImportUnknownWorkflowFails(t *testing.T) {
	fake := &managementapitest.Fake{}
	ic := newImportCtx()
	ic.Env.Workflows = nil

	err := Import(context.Background(), fake, ic, []model.MigrationItem{sampleItem("draft")}, Options{FailOnError: true})
	assert.Error(t, err)
}

func TestCategorizeRejectsTwoPublishedVersions(t *testing.T) {
	wf := testWorkflow()
	versions := []model.MigrationItemVersion{
		{WorkflowStep: model.CodenameRef{Codename: "published"}},
		{WorkflowStep: model.CodenameRef{Codename: "published"}},
	}
	_, _, err := categorize(&wf, versions)
	assert.Error(t, err)
}
