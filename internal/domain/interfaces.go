package domain

import "context"

// FileType discriminates the supported extraction variants.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
)

// Document is one uploaded file. Name is the external identity; ID is generated
// once per upload and shared by every record derived from it.
type Document struct {
	Name string
	ID   string
	Type FileType
}

// Chunk is a bounded group of raw units submitted together for augmentation.
// Position is the ordering key stored as the record's page_number.
type Chunk struct {
	Position string
	Text     string
}

// Group is the unit of the augmentation barrier: every chunk of a group is
// augmented concurrently and none of its records is written until all succeed.
type Group struct {
	Context string
	Chunks  []Chunk
}

// EnrichedChunk is a chunk after both augmentation calls completed.
type EnrichedChunk struct {
	Chunk      Chunk
	Contextual string
	Vector     []float32
}

// VectorRecord is the persisted, embedding-bearing unit.
type VectorRecord struct {
	ID               string    `json:"id" bson:"id"`
	OriginalText     string    `json:"original_text" bson:"original_text"`
	ContextualText   string    `json:"contextual_text" bson:"contextual_text"`
	DocumentName     string    `json:"document_name" bson:"document_name"`
	DocumentID       string    `json:"document_id" bson:"document_id"`
	PageNumber       string    `json:"page_number" bson:"page_number"`
	VectorEmbeddings []float32 `json:"vector_embeddings" bson:"vector_embeddings"`
}

// Augmenter produces the natural-language parts of augmentation.
type Augmenter interface {
	// DescribeTable returns a short description of a table from a small sample.
	DescribeTable(ctx context.Context, sample string) (string, error)
	// Contextualize situates a chunk within its document for retrieval.
	Contextualize(ctx context.Context, docContext, chunk string) (string, error)
}

// Embedder converts free text into a fixed-length numeric vector.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RecordStore persists vector records keyed by document identity.
type RecordStore interface {
	Exists(ctx context.Context, documentName string) (bool, error)
	Insert(ctx context.Context, record VectorRecord) error
	DeleteByNameOrID(ctx context.Context, input string) (int64, error)
	DocumentNames(ctx context.Context) ([]string, error)
	Close(ctx context.Context) error
}
