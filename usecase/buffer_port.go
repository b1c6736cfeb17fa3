package usecase

import (
	"context"

	"github.com/fastygo/zoo/domain"
)

// CompletionBuffer parks gestation completions the store rejected so they can be replayed later.
type CompletionBuffer interface {
	BufferCompletion(ctx context.Context, gestation domain.Gestation) error
}
