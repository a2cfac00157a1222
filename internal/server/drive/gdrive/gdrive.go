// Package gdrive is the Google Drive v3 backend of drive.Provider.
package gdrive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/docdrive/internal/server/drive"
	"github.com/dmitrijs2005/docdrive/internal/server/vault"
	gd "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	Name     = "gdrive"
	pageSize = 100
	fields   = "id, name, mimeType, size, createdTime, modifiedTime, webViewLink"
)

var newService = gd.NewService

// Provider opens Drive clients authenticated with a service-account key.
type Provider struct {
	opts []option.ClientOption
}

// New returns a Provider. Extra options are applied after the credentials,
// e.g. option.WithEndpoint for a non-default API host.
func New(opts ...option.ClientOption) *Provider {
	return &Provider{opts: opts}
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Open(ctx context.Context, sa *vault.ServiceAccount) (drive.Client, error) {
	raw, err := sa.JSON()
	if err != nil {
		return nil, drive.Wrap("encode service account", err)
	}

	opts := []option.ClientOption{
		option.WithCredentialsJSON(raw),
		option.WithScopes(gd.DriveScope, gd.DriveFileScope),
	}
	opts = append(opts, p.opts...)

	svc, err := newService(ctx, opts...)
	if err != nil {
		return nil, drive.Wrap("open drive service", err)
	}
	return &Client{svc: svc}, nil
}

// Client implements drive.Client over a Drive v3 service.
type Client struct {
	svc *gd.Service
}

func (c *Client) Create(ctx context.Context, r io.Reader, name, mimeType, parent string) (*drive.Object, error) {
	meta := &gd.File{Name: name, MimeType: mimeType}
	if parent != "" {
		meta.Parents = []string{parent}
	}

	f, err := c.svc.Files.Create(meta).
		Media(r, googleapi.ContentType(mimeType)).
		Fields(fields).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, drive.Wrap("upload file", err)
	}
	return toObject(f), nil
}

func (c *Client) GetMedia(ctx context.Context, id string) (io.ReadCloser, error) {
	resp, err := c.svc.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, drive.Wrap("download file", err)
	}
	return resp.Body, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	err := c.svc.Files.Delete(id).SupportsAllDrives(true).Context(ctx).Do()
	return drive.Wrap("delete file", err)
}

func (c *Client) List(ctx context.Context, parent string, limit int) ([]*drive.Object, error) {
	q := "trashed=false"
	if parent != "" {
		q = fmt.Sprintf("'%s' in parents and %s", strings.ReplaceAll(parent, "'", `\'`), q)
	}

	size := int64(pageSize)
	if limit > 0 && limit < pageSize {
		size = int64(limit)
	}

	var out []*drive.Object
	token := ""
	for {
		call := c.svc.Files.List().
			Q(q).
			OrderBy("folder,name").
			PageSize(size).
			Fields(googleapi.Field("nextPageToken, files(" + fields + ")")).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}

		res, err := call.Do()
		if err != nil {
			return nil, drive.Wrap("list folder", err)
		}
		for _, f := range res.Files {
			out = append(out, toObject(f))
			if limit > 0 && len(out) == limit {
				return out, nil
			}
		}

		token = res.NextPageToken
		if token == "" {
			return out, nil
		}
	}
}

func (c *Client) CreateFolder(ctx context.Context, name, parent string) (*drive.Object, error) {
	meta := &gd.File{Name: name, MimeType: drive.FolderMimeType}
	if parent != "" {
		meta.Parents = []string{parent}
	}

	f, err := c.svc.Files.Create(meta).Fields(fields).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return nil, drive.Wrap("create folder", err)
	}
	return toObject(f), nil
}

func toObject(f *gd.File) *drive.Object {
	o := &drive.Object{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		Size:        f.Size,
		WebViewLink: f.WebViewLink,
	}
	o.CreatedAt, _ = time.Parse(time.RFC3339, f.CreatedTime)
	o.ModifiedAt, _ = time.Parse(time.RFC3339, f.ModifiedTime)
	return o
}
