package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jdhoffa/lookout-g/internal/model"
)

// JSON writes the sequence as an indented JSON array.
type JSON struct {
	W io.Writer
}

func (j *JSON) Name() string { return "json" }

func (j *JSON) Publish(_ context.Context, events []model.Event) ([]Receipt, error) {
	if events == nil {
		events = []model.Event{}
	}
	b, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode events: %w", err)
	}
	b = append(b, '\n')
	if _, err := j.W.Write(b); err != nil {
		return nil, fmt.Errorf("write events: %w", err)
	}
	return nil, nil
}
