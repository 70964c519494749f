package relay

import (
	"context"
	"strings"
)

// Collect drains a stream and returns the final response.
// If the stream ends without a Done event, the accumulated deltas are
// returned as the response content. The first error event is returned as is.
func Collect(ctx context.Context, ch <-chan StreamEvent) (*Response, error) {
	var content strings.Builder
	var final *Response

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok := <-ch:
			if !ok {
				if final == nil {
					final = &Response{}
				}
				if final.Content == "" {
					final.Content = content.String()
				}
				return final, nil
			}
			if event.Err != nil {
				return nil, event.Err
			}
			content.WriteString(event.Delta)
			if event.Done && event.Response != nil {
				final = event.Response
			}
		}
	}
}
