package transport

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every JSON body the API writes.
type Envelope struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Data   any    `json:"data,omitempty"`
	Error  any    `json:"error,omitempty"`
	Meta   any    `json:"meta,omitempty"`
}

// ListMeta accompanies collection responses.
type ListMeta struct {
	Count int `json:"count"`
}

func NewSuccess(data, meta any) Envelope {
	return Envelope{Status: StatusSuccess, Data: data, Meta: meta}
}

// NewList wraps a collection with its count. A nil slice renders as [].
func NewList[T any](items []T) Envelope {
	if items == nil {
		items = []T{}
	}
	return NewSuccess(items, ListMeta{Count: len(items)})
}

func NewError(code, message string, meta any) Envelope {
	return Envelope{Status: StatusError, Code: code, Error: message, Meta: meta}
}
