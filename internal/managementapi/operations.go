package managementapi

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/artemis/kontent-migrate/internal/kerrors"
)

func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	var out struct {
		Collections []Collection `json:"collections"`
	}
	if err := c.do(ctx, "list_collections", http.MethodGet, "/collections", nil, &out); err != nil {
		return nil, err
	}
	return out.Collections, nil
}

func (c *Client) ListLanguages(ctx context.Context) ([]Language, error) {
	var out struct {
		Languages []Language `json:"languages"`
	}
	if err := c.do(ctx, "list_languages", http.MethodGet, "/languages", nil, &out); err != nil {
		return nil, err
	}
	return out.Languages, nil
}

func (c *Client) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	var out struct {
		Workflows []Workflow `json:"workflows"`
	}
	if err := c.do(ctx, "list_workflows", http.MethodGet, "/workflows", nil, &out); err != nil {
		return nil, err
	}
	return out.Workflows, nil
}

func (c *Client) ListTaxonomies(ctx context.Context) ([]Taxonomy, error) {
	var out struct {
		Taxonomies []Taxonomy `json:"taxonomies"`
	}
	if err := c.do(ctx, "list_taxonomies", http.MethodGet, "/taxonomies", nil, &out); err != nil {
		return nil, err
	}
	return out.Taxonomies, nil
}

func (c *Client) ListContentTypes(ctx context.Context) ([]FlattenedContentType, error) {
	var out struct {
		Types []FlattenedContentType `json:"types"`
	}
	if err := c.do(ctx, "list_content_types", http.MethodGet, "/types", nil, &out); err != nil {
		return nil, err
	}
	return out.Types, nil
}

func (c *Client) ListAssetFolders(ctx context.Context) ([]AssetFolder, error) {
	var out struct {
		Folders []AssetFolder `json:"folders"`
	}
	if err := c.do(ctx, "list_asset_folders", http.MethodGet, "/assets/folders", nil, &out); err != nil {
		return nil, err
	}
	return out.Folders, nil
}

func (c *Client) ViewContentItem(ctx context.Context, codenameOrID string) (*ContentItem, error) {
	var out ContentItem
	if err := c.do(ctx, "view_content_item", http.MethodGet, "/items/codename/"+codenameOrID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddContentItem(ctx context.Context, data ContentItemCreate) (*ContentItem, error) {
	var out ContentItem
	if err := c.do(ctx, "add_content_item", http.MethodPost, "/items", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpsertContentItem(ctx context.Context, codename string, data ContentItemUpsert) (*ContentItem, error) {
	var out ContentItem
	if err := c.do(ctx, "upsert_content_item", http.MethodPut, "/items/codename/"+codename, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ViewLanguageVariant(ctx context.Context, itemCodename, langCodename string, published bool) (*LanguageVariant, error) {
	path := fmt.Sprintf("/items/codename/%s/variants/codename/%s", itemCodename, langCodename)
	if published {
		path += "/published"
	}
	var out LanguageVariant
	if err := c.do(ctx, "view_language_variant", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpsertLanguageVariant(ctx context.Context, itemCodename, langCodename string, data LanguageVariantUpsert) (*LanguageVariant, error) {
	path := fmt.Sprintf("/items/codename/%s/variants/codename/%s", itemCodename, langCodename)
	var out LanguageVariant
	if err := c.do(ctx, "upsert_language_variant", http.MethodPut, path, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateNewVersion(ctx context.Context, itemCodename, langCodename string) error {
	path := fmt.Sprintf("/items/codename/%s/variants/codename/%s/new-version", itemCodename, langCodename)
	return c.do(ctx, "create_new_version", http.MethodPut, path, nil, nil)
}

func (c *Client) ChangeWorkflowOfLanguageVariant(ctx context.Context, itemCodename, langCodename, stepCodename string) error {
	path := fmt.Sprintf("/items/codename/%s/variants/codename/%s/workflow/%s", itemCodename, langCodename, stepCodename)
	return c.do(ctx, "change_workflow_step", http.MethodPut, path, nil, nil)
}

func (c *Client) PublishLanguageVariant(ctx context.Context, itemCodename, langCodename string, sched *Scheduling) error {
	path := fmt.Sprintf("/items/codename/%s/variants/codename/%s/publish", itemCodename, langCodename)
	var body interface{}
	if sched != nil {
		body = map[string]interface{}{
			"scheduled_to":     sched.ScheduledTo,
			"display_timezone": sched.DisplayTimezone,
		}
	}
	return c.do(ctx, "publish_language_variant", http.MethodPut, path, body, nil)
}

func (c *Client) UnpublishLanguageVariant(ctx context.Context, itemCodename, langCodename string, sched *Scheduling) error {
	path := fmt.Sprintf("/items/codename/%s/variants/codename/%s/unpublish", itemCodename, langCodename)
	var body interface{}
	if sched != nil {
		body = map[string]interface{}{
			"scheduled_to":     sched.ScheduledTo,
			"display_timezone": sched.DisplayTimezone,
		}
	}
	return c.do(ctx, "unpublish_language_variant", http.MethodPut, path, body, nil)
}

func (c *Client) CancelScheduledPublish(ctx context.Context, itemCodename, langCodename string) error {
	path := fmt.Sprintf("/items/codename/%s/variants/codename/%s/cancel-scheduled-publish", itemCodename, langCodename)
	return c.do(ctx, "cancel_scheduled_publish", http.MethodPut, path, nil, nil)
}

func (c *Client) CancelScheduledUnpublish(ctx context.Context, itemCodename, langCodename string) error {
	path := fmt.Sprintf("/items/codename/%s/variants/codename/%s/cancel-scheduled-unpublish", itemCodename, langCodename)
	return c.do(ctx, "cancel_scheduled_unpublish", http.MethodPut, path, nil, nil)
}

func (c *Client) ViewAsset(ctx context.Context, idOrCodename string) (*Asset, error) {
	var out Asset
	if err := c.do(ctx, "view_asset", http.MethodGet, "/assets/codename/"+idOrCodename, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddAsset(ctx context.Context, data AssetCreate) (*Asset, error) {
	var out Asset
	if err := c.do(ctx, "add_asset", http.MethodPost, "/assets", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpsertAsset(ctx context.Context, codename string, data AssetUpsert) (*Asset, error) {
	var out Asset
	if err := c.do(ctx, "upsert_asset", http.MethodPut, "/assets/codename/"+codename, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UploadBinaryFile(ctx context.Context, data BinaryUpload) (*FileReference, error) {
	var out FileReference
	err := c.withRetry(ctx, "upload_binary_file", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files/"+data.Filename, newByteReader(data.BinaryData))
		if err != nil {
			return fmt.Errorf("build upload request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", data.ContentType)
		req.ContentLength = data.ContentLength

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", kerrors.ErrTransient, err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("upload binary file failed with status %d", resp.StatusCode)
		}
		return decodeJSON(body, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DownloadAsset(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := c.withRetry(ctx, "download_asset", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("build download request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", kerrors.ErrTransient, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("download asset failed with status %d", resp.StatusCode)
		}
		data, err = io.ReadAll(resp.Body)
		return err
	})
	return data, err
}
