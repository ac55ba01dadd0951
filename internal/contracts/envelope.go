package contracts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/andreyxaxa/auction-sync/pkg/types/errs"
	"github.com/google/uuid"
)

// Envelope is what actually travels on the bus: a tagged union of the events above.
type Envelope struct {
	ID         uuid.UUID       `json:"id"`
	Kind       Kind            `json:"kind"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Wrap validates e and packs it into a new envelope.
func Wrap(e Event, occurredAt time.Time) (Envelope, error) {
	if err := e.Validate(); err != nil {
		return Envelope{}, fmt.Errorf("contracts - Wrap - %s: %w", e.Kind(), err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("contracts - Wrap - json.Marshal: %w", err)
	}

	return Envelope{
		ID:         uuid.New(),
		Kind:       e.Kind(),
		OccurredAt: occurredAt.UTC(),
		Data:       data,
	}, nil
}

func (env Envelope) Marshal() ([]byte, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("contracts - Envelope.Marshal - json.Marshal: %w", err)
	}

	return b, nil
}

// Unmarshal parses a raw bus payload. Anything unparsable is an invalid event.
func Unmarshal(raw []byte) (Envelope, error) {
	var env Envelope

	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", errs.ErrInvalidEvent, err)
	}

	if env.Kind == "" || len(env.Data) == 0 {
		return Envelope{}, fmt.Errorf("%w: envelope without kind or data", errs.ErrInvalidEvent)
	}

	return env, nil
}

// Decode extracts the typed event carried by env and validates it.
func Decode[T Event](env Envelope) (T, error) {
	var e T

	if env.Kind != e.Kind() {
		return e, fmt.Errorf("%w: expected %s, got %s", errs.ErrInvalidEvent, e.Kind(), env.Kind)
	}

	if err := json.Unmarshal(env.Data, &e); err != nil {
		return e, fmt.Errorf("%w: %s: %v", errs.ErrInvalidEvent, env.Kind, err)
	}

	if err := e.Validate(); err != nil {
		return e, err
	}

	return e, nil
}
