package docs

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"github.com/apiscout/apiscout/internal/embeddings"
	"github.com/apiscout/apiscout/internal/llm"
)

const collectionName = "docs"

const docPromptFormat = `Here are some docs:

%s

%s

---

Answer the following question using markdown to format.
Please provide generous spacing between sections. Indent lists.
Feel free to reorganize or reformat to make the information more consumable.
Translate the answer to the same language of the question.

"%s"
`

// Index holds the embedded documentation sections for similarity search.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewIndex creates an empty in-memory index using the given embedder.
func NewIndex(embedder embeddings.Embedder) (*Index, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("docs: creating collection: %w", err)
	}
	return &Index{db: db, collection: col, embedFunc: ef}, nil
}

// Reindex replaces the index contents with the given sections.
func (ix *Index) Reindex(ctx context.Context, sections []Section) error {
	if err := ix.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("docs: resetting collection: %w", err)
	}
	col, err := ix.db.GetOrCreateCollection(collectionName, nil, ix.embedFunc)
	if err != nil {
		return fmt.Errorf("docs: recreating collection: %w", err)
	}
	ix.collection = col

	if len(sections) == 0 {
		return nil
	}
	documents := make([]chromem.Document, len(sections))
	for i, sec := range sections {
		documents[i] = chromem.Document{
			ID:       sec.ID,
			Content:  sec.Content,
			Metadata: map[string]string{"name": sec.Name},
		}
	}
	if err := ix.collection.AddDocuments(ctx, documents, 1); err != nil {
		return fmt.Errorf("docs: indexing sections: %w", err)
	}
	return nil
}

// BestSection returns the section most similar to the question, or nil when
// the index is empty.
func (ix *Index) BestSection(ctx context.Context, question string) (*Section, error) {
	if ix.collection.Count() == 0 {
		return nil, nil
	}

	results, err := ix.collection.Query(ctx, question, 1, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("docs: querying index: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	r := results[0]
	return &Section{ID: r.ID, Name: r.Metadata["name"], Content: r.Content}, nil
}

// BuildDocMessage renders the documentation answer prompt for the given
// section and question. A nil section produces a prompt with no passage, so
// the model answers from general knowledge.
func BuildDocMessage(section *Section, question string) llm.Message {
	name, content := "", ""
	if section != nil {
		name = section.Name
		content = section.Content
	}
	return llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf(docPromptFormat, name, content, question),
		Kind:    llm.KindUser,
	}
}
