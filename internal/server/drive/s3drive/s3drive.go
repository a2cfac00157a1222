// Package s3drive is an S3-compatible backend of drive.Provider, meant for
// MinIO-style deployments. Folders are key prefixes inside one bucket and the
// service account only labels objects.
package s3drive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/docdrive/internal/server/drive"
	"github.com/dmitrijs2005/docdrive/internal/server/vault"
	"github.com/google/uuid"
)

const (
	Name = "s3"

	metaClientEmail = "client-email"
	metaName        = "name"
	folderMarker    = ".folder"
)

// ObjectAPI is the part of *s3.Client the backend uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) ObjectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Config addresses the bucket all admins share.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

type Provider struct {
	cfg Config
}

func New(cfg Config) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Open(ctx context.Context, sa *vault.ServiceAccount) (drive.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.cfg.AccessKey,
			p.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, drive.Wrap("load s3 config", err)
	}

	api := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if p.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(p.cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return NewClient(api, p.cfg.Bucket, sa.ClientEmail), nil
}

// Client implements drive.Client on top of ObjectAPI.
type Client struct {
	api    ObjectAPI
	bucket string
	owner  string
}

func NewClient(api ObjectAPI, bucket, owner string) *Client {
	return &Client{api: api, bucket: bucket, owner: owner}
}

func join(parent, name string) string {
	if parent == "" {
		return name
	}
	return strings.TrimSuffix(parent, "/") + "/" + name
}

// displayName strips the "<uuid>_" prefix Create puts in front of file names.
func displayName(key string) string {
	base := path.Base(key)
	if len(base) > 37 && base[36] == '_' {
		if _, err := uuid.Parse(base[:36]); err == nil {
			return base[37:]
		}
	}
	return base
}

// Create stores r at "<parent>/<uuid>_<name>". Non-seekable readers are
// buffered so the SDK can sign the payload.
func (c *Client) Create(ctx context.Context, r io.Reader, name, mimeType, parent string) (*drive.Object, error) {
	body, size, err := seekable(r)
	if err != nil {
		return nil, drive.Wrap("read upload", err)
	}

	key := join(parent, uuid.NewString()+"_"+path.Base(name))
	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(mimeType),
		Metadata: map[string]string{
			metaClientEmail: c.owner,
			metaName:        name,
		},
	})
	if err != nil {
		return nil, drive.Wrap("upload file", err)
	}

	return &drive.Object{ID: key, Name: name, MimeType: mimeType, Size: size}, nil
}

func (c *Client) GetMedia(ctx context.Context, id string) (io.ReadCloser, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return nil, drive.Wrap("download file", err)
	}
	return out.Body, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(id),
	})
	return drive.Wrap("delete file", err)
}

// List returns the direct children of parent: sub-prefixes as folders first,
// then objects.
func (c *Client) List(ctx context.Context, parent string, limit int) ([]*drive.Object, error) {
	prefix := ""
	if parent != "" {
		prefix = strings.TrimSuffix(parent, "/") + "/"
	}

	var folders, files []*drive.Object
	var token *string
	for {
		out, err := c.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(c.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, drive.Wrap("list folder", err)
		}

		for _, cp := range out.CommonPrefixes {
			id := strings.TrimSuffix(aws.ToString(cp.Prefix), "/")
			folders = append(folders, &drive.Object{ID: id, Name: path.Base(id), MimeType: drive.FolderMimeType})
		}
		for _, obj := range out.Contents {
			if o := toObject(obj); o != nil {
				files = append(files, o)
			}
		}

		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}

	all := append(folders, files...)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// CreateFolder writes a marker object so the prefix shows up in listings.
func (c *Client) CreateFolder(ctx context.Context, name, parent string) (*drive.Object, error) {
	id := join(parent, name)
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(id + "/" + folderMarker),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
		ContentType:   aws.String(drive.FolderMimeType),
		Metadata:      map[string]string{metaClientEmail: c.owner},
	})
	if err != nil {
		return nil, drive.Wrap("create folder", err)
	}
	return &drive.Object{ID: id, Name: name, MimeType: drive.FolderMimeType}, nil
}

func toObject(obj types.Object) *drive.Object {
	key := aws.ToString(obj.Key)
	if path.Base(key) == folderMarker {
		return nil
	}
	o := &drive.Object{
		ID:   key,
		Name: displayName(key),
		Size: aws.ToInt64(obj.Size),
	}
	if obj.LastModified != nil {
		o.ModifiedAt = *obj.LastModified
		o.CreatedAt = *obj.LastModified
	}
	return o
}

func seekable(r io.Reader) (io.ReadSeeker, int64, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		size, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, err
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, 0, err
		}
		return rs, size, nil
	}
	if r == nil {
		return nil, 0, errors.New("nil reader")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(b), int64(len(b)), nil
}
