// Package http provides a backbone.Embedder backed by an inference server
// exposing the frozen backbone over a JSON tensor-in/vector-out endpoint.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/poiesic/gmmtrain/backbone"
)

// Embedder implements backbone.Embedder against an inference service.
type Embedder struct {
	host      string
	model     string
	dimension int
	client    *http.Client
	logger    *slog.Logger
}

// embedRequest is the wire format of one inference call. Each input is a
// flattened CHW tensor; the geometry fields let the server reshape it.
type embedRequest struct {
	Model    string      `json:"model"`
	Channels int         `json:"channels"`
	Size     int         `json:"size"`
	Inputs   [][]float32 `json:"inputs"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *backbone.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Embedder{
		host:      config.Host,
		model:     config.Model,
		dimension: config.Dimension,
		client:    &http.Client{Timeout: config.Timeout},
		logger:    slog.Default().With("component", "http-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns backbone.Embedder interface to enforce abstraction.
func NewEmbedder(config *backbone.Config) (backbone.Embedder, error) {
	return newEmbedder(config)
}

// Dimension returns the embedding dimensionality the service is expected
// to produce.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// EmbedImages generates embeddings for a batch of preprocessed images.
func (e *Embedder) EmbedImages(ctx context.Context, batch []*backbone.Image) ([][]float32, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	channels, size := batch[0].Channels, batch[0].Size
	inputs := make([][]float32, len(batch))
	for i, img := range batch {
		if err := img.Validate(); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		if img.Channels != channels || img.Size != size {
			return nil, fmt.Errorf("input %d: geometry %dx%d differs from batch %dx%d",
				i, img.Channels, img.Size, channels, size)
		}
		inputs[i] = img.Data
	}

	e.logger.Debug("requesting embeddings", "count", len(batch), "model", e.model)

	body, err := json.Marshal(embedRequest{
		Model:    e.model,
		Channels: channels,
		Size:     size,
		Inputs:   inputs,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Error("inference call failed", "count", len(batch), "err", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference service returned %d: %s", resp.StatusCode, msg)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding inference response: %w", err)
	}

	if len(out.Embeddings) != len(batch) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d",
			len(batch), len(out.Embeddings))
	}
	for i, vec := range out.Embeddings {
		if len(vec) != e.dimension {
			return nil, fmt.Errorf("embedding %d has dimension %d, expected %d",
				i, len(vec), e.dimension)
		}
	}

	return out.Embeddings, nil
}
