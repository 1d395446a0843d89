package openaiwire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
)

// doneSentinel terminates an OpenAI-protocol event stream.
var doneSentinel = []byte("[DONE]")

// normalizeStream consumes the upstream event stream and emits normalized
// chunks. Exactly one terminal chunk (IsLastChunk or a carried error) is
// produced per stream. The response body is released when the stream
// completes, fails, or the caller cancels.
func (c *Client) normalizeStream(
	ctx context.Context,
	resp *http.Response,
	requestModel string,
	chunks chan<- domain.StreamChunk,
) {
	defer close(chunks)
	defer resp.Body.Close()

	logger := observability.FromContext(ctx)
	decoder := newSSEDecoder(resp.Body)

	// Placeholders until the first frame carries real values; locked once set.
	chunkID := fmt.Sprintf("chatcmpl-%s", uuid.NewString())
	model := requestModel
	idSeen, modelSeen := false, false

	var accumulated bytes.Buffer

	for {
		data, err := decoder.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Upstream closed without the [DONE] sentinel; treat the end
				// of transport as the terminator.
				c.send(ctx, chunks, c.newChunk(chunkID, model, accumulated.String(), "stop", true))
				return
			}
			if ctx.Err() != nil {
				// Caller cancelled; nobody is pulling anymore.
				return
			}
			errChunk := c.newChunk(chunkID, model, "", "", true)
			errChunk.Err = domain.ErrConnection(c.provider, err)
			c.send(ctx, chunks, errChunk)
			return
		}

		data = bytes.TrimSpace(data)
		if bytes.Equal(data, doneSentinel) {
			c.send(ctx, chunks, c.newChunk(chunkID, model, accumulated.String(), "stop", true))
			return
		}

		var frame chatStreamChunk
		if unmarshalErr := json.Unmarshal(data, &frame); unmarshalErr != nil {
			// A malformed frame is skipped; it does not end the stream.
			logger.Warn("skipping unparseable stream frame", observability.Error(unmarshalErr))
			continue
		}

		if !idSeen && frame.ID != "" {
			chunkID = frame.ID
			idSeen = true
		}
		if !modelSeen && frame.Model != "" {
			model = frame.Model
			modelSeen = true
		}

		if len(frame.Choices) == 0 {
			continue
		}

		if delta := frame.Choices[0].Delta.Content; delta != "" {
			accumulated.WriteString(delta)
			if !c.send(ctx, chunks, c.newChunk(chunkID, model, delta, "", false)) {
				return
			}
		}

		if finish := frame.Choices[0].FinishReason; finish != "" {
			c.send(ctx, chunks, c.newChunk(chunkID, model, "", finish, true))
			return
		}
	}
}

// send delivers a chunk unless the caller has gone away.
func (c *Client) send(ctx context.Context, chunks chan<- domain.StreamChunk, chunk domain.StreamChunk) bool {
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) newChunk(id, model, content, finishReason string, last bool) domain.StreamChunk {
	return domain.StreamChunk{
		ID:           id,
		Model:        model,
		Provider:     c.provider,
		Content:      content,
		CreatedAt:    time.Now().Format(time.RFC3339),
		FinishReason: finishReason,
		IsLastChunk:  last,
	}
}
