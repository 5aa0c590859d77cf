package huffman

import (
	"context"
	"fmt"
)

// Model is a reusable trained code table. Texts encoded with a model share
// its table, so every symbol they contain must appear in the training sample.
type Model struct {
	config Config
	table  *CodeTable[rune]
	tree   *Tree[rune]
}

// NewModel creates an empty model with the provided options.
func NewModel(opts ...Option) *Model {
	return &Model{config: newConfig(opts)}
}

// TrainModel trains a reusable model from sample text.
func TrainModel(sample string, opts ...Option) (*Model, error) {
	m := NewModel(opts...)
	if err := m.Train(sample); err != nil {
		return nil, err
	}
	return m, nil
}

// Train builds the tree and code table for subsequent Encode calls. Training
// on empty text fails with ErrEmptyInput and leaves the model unchanged.
func (m *Model) Train(sample string) error {
	symbols, err := textSymbols(sample)
	if err != nil {
		return err
	}
	freq, err := CountParallel(context.Background(), symbols, m.config.Workers)
	if err != nil {
		return err
	}
	tree, err := BuildTree(freq)
	if err != nil {
		return err
	}
	table, err := GenerateCodes(tree)
	if err != nil {
		return err
	}
	m.tree = tree
	m.table = table
	return nil
}

// Encode compresses text using a previously trained model. A symbol absent
// from the training sample fails with ErrUnknownSymbol.
func (m *Model) Encode(text string) (*Archive, error) {
	if m.table == nil {
		return nil, ErrUntrainedModel
	}
	symbols, err := textSymbols(text)
	if err != nil {
		return nil, err
	}
	return encodeArchive(symbols, m.table, m.config)
}

// Decode decodes an archive produced by this model without rebuilding the
// tree from the archive's table. An archive carrying any other table fails
// with ErrTableMismatch.
func (m *Model) Decode(a *Archive) ([]rune, error) {
	if m.tree == nil {
		return nil, ErrUntrainedModel
	}
	if err := validateArchiveStructure(a); err != nil {
		return nil, fmt.Errorf("invalid archive: %w", err)
	}
	if a.SymbolCount == 0 {
		return []rune{}, nil
	}
	if !m.table.Equal(a.Table) {
		return nil, fmt.Errorf("%w: archive has %d codes, model has %d", ErrTableMismatch, a.Table.Len(), m.table.Len())
	}
	return a.decodeWith(m.tree)
}

// Trained reports whether the model is ready for Encode.
func (m *Model) Trained() bool {
	return m.table != nil
}

// Table returns the trained code table, or nil before training.
func (m *Model) Table() *CodeTable[rune] {
	return m.table
}
