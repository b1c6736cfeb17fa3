package services

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/fastygo/zoo/domain"
	"github.com/fastygo/zoo/internal/infrastructure/buffer"
	"github.com/fastygo/zoo/usecase"
)

const completionPriority = 2

// BufferBridge turns domain writes into buffer items.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferCompletion(_ context.Context, gestation domain.Gestation) error {
	if b.processor == nil || gestation.ID == 0 {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(gestation)
	if err != nil {
		return err
	}
	return b.processor.Enqueue(buffer.Item{
		ID:             "gestation-" + strconv.FormatInt(gestation.ID, 10),
		OrganizationID: gestation.OrganizationID,
		Entity:         buffer.EntityGestation,
		Operation:      buffer.OperationComplete,
		Data:           payload,
		Priority:       completionPriority,
	})
}

var _ usecase.CompletionBuffer = (*BufferBridge)(nil)
