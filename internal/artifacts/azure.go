package artifacts

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureClient is the subset of *azblob.Client used by AzureStore.
type AzureClient interface {
	DownloadStream(ctx context.Context, containerName, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
}

// AzureStore reads model bundles from an Azure Blob Storage container.
type AzureStore struct {
	client    AzureClient
	container string
}

// NewAzure wraps an existing client.
func NewAzure(client AzureClient, container string) *AzureStore {
	return &AzureStore{client: client, container: container}
}

// NewAzureFromConnectionString creates the azblob client from a storage
// account connection string.
func NewAzureFromConnectionString(connectionString, container string) (*AzureStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return NewAzure(client, container), nil
}

func (a *AzureStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := a.client.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("blob %s/%s: %w", a.container, key, ErrNotFound)
		}
		return nil, fmt.Errorf("download blob %s/%s: %w", a.container, key, err)
	}
	return resp.Body, nil
}

var _ ObjectStore = (*AzureStore)(nil)
