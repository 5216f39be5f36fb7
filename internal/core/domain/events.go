package domain

// EvictionReason explains why a document left a conversation index.
type EvictionReason string

// Eviction reasons.
const (
	// EvictionLeastRecentlyUsed is used when the document cap forced out the
	// document whose chunks were least recently returned by a query.
	EvictionLeastRecentlyUsed EvictionReason = "least_recently_used"

	// EvictionUploadOrder is used when the evicted document was never
	// returned by a query and was the oldest upload.
	EvictionUploadOrder EvictionReason = "upload_order"
)

// DocumentEvicted is an informational event raised when the document cap
// forces a document out of a conversation. It is not an error.
type DocumentEvicted struct {
	// ConversationID is the owning conversation.
	ConversationID string `json:"conversation_id"`

	// DocumentID is the evicted document.
	DocumentID string `json:"document_id"`

	// Filename is the evicted document's upload name.
	Filename string `json:"filename"`

	// ChunkCount is the number of chunks removed from the index.
	ChunkCount int `json:"chunk_count"`

	// Reason is the eviction rule that selected the document.
	Reason EvictionReason `json:"reason"`
}
