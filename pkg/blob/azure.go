package blob

import (
	"context"
	"errors"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureProvider serves blobs from an Azure Storage container.
type AzureProvider struct {
	client    *azblob.Client
	container string
}

// AzureOptions configures an AzureProvider. When AccountKey is empty,
// DefaultAzureCredential is used (managed identity, environment, CLI).
type AzureOptions struct {
	AccountURL  string
	Container   string
	AccountName string
	AccountKey  string
}

// NewAzureProvider builds a provider using shared-key or ambient credentials.
func NewAzureProvider(opts AzureOptions) (*AzureProvider, error) {
	var client *azblob.Client
	var err error
	if opts.AccountKey != "" {
		cred, credErr := azblob.NewSharedKeyCredential(opts.AccountName, opts.AccountKey)
		if credErr != nil {
			return nil, &Error{Kind: KindUnsupported, Key: opts.Container, Err: credErr}
		}
		client, err = azblob.NewClientWithSharedKeyCredential(opts.AccountURL, cred, nil)
	} else {
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, &Error{Kind: KindUnsupported, Key: opts.Container, Err: credErr}
		}
		client, err = azblob.NewClient(opts.AccountURL, cred, nil)
	}
	if err != nil {
		return nil, &Error{Kind: KindTransient, Key: opts.Container, Err: err}
	}
	return &AzureProvider{client: client, container: opts.Container}, nil
}

func (p *AzureProvider) List(ctx context.Context, prefix string) ([]Descriptor, error) {
	var out []Descriptor
	pager := p.client.NewListBlobsFlatPager(p.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, wrapAzureError(prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			var size int64
			if item.Properties != nil && item.Properties.ContentLength != nil {
				size = *item.Properties.ContentLength
			}
			out = append(out, Descriptor{Key: *item.Name, Size: size})
		}
	}
	return out, nil
}

func (p *AzureProvider) Open(ctx context.Context, d Descriptor) (io.ReadCloser, error) {
	resp, err := p.client.DownloadStream(ctx, p.container, d.Key, nil)
	if err != nil {
		return nil, wrapAzureError(d.Key, err)
	}
	return resp.Body, nil
}

func (p *AzureProvider) Head(ctx context.Context, d Descriptor) (Info, error) {
	bc := p.client.ServiceClient().NewContainerClient(p.container).NewBlobClient(d.Key)
	resp, err := bc.GetProperties(ctx, nil)
	if err != nil {
		return Info{}, wrapAzureError(d.Key, err)
	}
	info := Info{}
	if resp.ContentLength != nil {
		info.Size = *resp.ContentLength
	}
	if resp.LastModified != nil {
		info.LastModified = *resp.LastModified
	}
	if resp.ContentType != nil {
		info.ContentType = *resp.ContentType
	}
	return info, nil
}

func wrapAzureError(key string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return &Error{Kind: KindNotFound, Key: key, Err: err}
	}
	if bloberror.HasCode(err, bloberror.AuthorizationFailure, bloberror.InsufficientAccountPermissions) {
		return &Error{Kind: KindAccessDenied, Key: key, Err: err}
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case 404:
			return &Error{Kind: KindNotFound, Key: key, Err: err}
		case 403:
			return &Error{Kind: KindAccessDenied, Key: key, Err: err}
		}
	}
	return &Error{Kind: KindTransient, Key: key, Err: err}
}

var _ Fetcher = (*AzureProvider)(nil)
