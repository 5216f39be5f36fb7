package services

import (
	"fmt"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

// evictionOrder tracks document recency within a conversation. Uploading a
// document and a query hit on any of its chunks both count as a use, so the
// oldest entry is the least recently hit document, or the oldest upload
// among those never hit since. Not safe for concurrent use.
type evictionOrder struct {
	// The value records whether the document was ever hit by a query.
	lru *simplelru.LRU[string, bool]
}

func newEvictionOrder(maxDocuments int) (*evictionOrder, error) {
	// One spare slot: the caller evicts before it tracks a new document.
	lru, err := simplelru.NewLRU[string, bool](maxDocuments+1, nil)
	if err != nil {
		return nil, fmt.Errorf("eviction order: %w", err)
	}
	return &evictionOrder{lru: lru}, nil
}

// track records a newly uploaded document as the most recent.
func (o *evictionOrder) track(documentID string) {
	o.lru.Add(documentID, false)
}

// hit records a query hit on a document. Unknown documents are ignored.
func (o *evictionOrder) hit(documentID string) {
	if o.lru.Contains(documentID) {
		o.lru.Add(documentID, true)
	}
}

// forget drops a document.
func (o *evictionOrder) forget(documentID string) {
	o.lru.Remove(documentID)
}

// victim returns the document to evict and why.
func (o *evictionOrder) victim() (string, domain.EvictionReason, bool) {
	id, wasHit, ok := o.lru.GetOldest()
	if !ok {
		return "", "", false
	}
	if wasHit {
		return id, domain.EvictionLeastRecentlyUsed, true
	}
	return id, domain.EvictionUploadOrder, true
}

func (o *evictionOrder) len() int {
	return o.lru.Len()
}
