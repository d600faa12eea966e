package media

import (
	"context"
	"fmt"
	"io"

	"github.com/dynasty-blog/dynasty/internal/domain"
)

// ContentAdder is the subset of the IPFS client the store needs
type ContentAdder interface {
	Add(ctx context.Context, data []byte) (string, error)
	Unpin(ctx context.Context, cid string) error
}

// IPFSStore keeps attachments on IPFS. References are CIDs, served through
// a public gateway.
type IPFSStore struct {
	client  ContentAdder
	gateway string
}

// NewIPFSStore creates an IPFS-backed store
func NewIPFSStore(client ContentAdder, gateway string) *IPFSStore {
	return &IPFSStore{client: client, gateway: gateway}
}

// Save reads the upload into memory and adds it to IPFS
func (s *IPFSStore) Save(ctx context.Context, kind domain.AttachmentKind, filename, contentType string, r io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, size+1))
	if err != nil {
		return "", storageError("read upload", err)
	}
	if int64(len(data)) > size {
		return "", fmt.Errorf("upload larger than declared size %d", size)
	}

	cid, err := s.client.Add(ctx, data)
	if err != nil {
		return "", storageError("ipfs add", err)
	}
	return cid, nil
}

// Remove unpins the CID so the node may collect it
func (s *IPFSStore) Remove(ctx context.Context, ref string) error {
	if err := s.client.Unpin(ctx, ref); err != nil {
		return storageError("ipfs unpin", err)
	}
	return nil
}

// URL returns the gateway URL of ref
func (s *IPFSStore) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return joinURL(s.gateway, ref)
}

// Name returns "ipfs"
func (s *IPFSStore) Name() string {
	return "ipfs"
}
