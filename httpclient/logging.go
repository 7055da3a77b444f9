package httpclient

import (
	nethttp "net/http"
	"strconv"
)

// logRequest logs the outgoing request
func (c *client) logRequest(req *nethttp.Request, body []byte, traceID string) {
	event := c.logger.Info().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", traceID)

	if len(req.Header) > 0 {
		event = event.Int("header_count", len(req.Header))
	}

	if len(body) > 0 {
		event = event.Int("body_size", len(body))
	}

	event.Msg("REST client request")

	if c.config.LogPayloads {
		maxBytes := c.maxPayloadBytes()
		c.logger.Debug().
			Str("direction", "outbound").
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Str("request_id", traceID).
			Interface("headers", flattenHeaders(req.Header)).
			Int("body_size", len(body)).
			Str("body_truncated", strconv.FormatBool(len(body) > maxBytes)).
			Bytes("body_preview", payloadPreview(body, maxBytes)).
			Msg("REST client request")
	}
}

// logResponse logs the incoming response
func (c *client) logResponse(resp *Response, traceID string) {
	event := c.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount).
		Str("request_id", traceID)

	if len(resp.Body) > 0 {
		event = event.Int("body_size", len(resp.Body))
	}

	event.Msg("REST client response")

	if c.config.LogPayloads {
		maxBytes := c.maxPayloadBytes()
		c.logger.Debug().
			Str("direction", "inbound").
			Int("status", resp.StatusCode).
			Str("request_id", traceID).
			Interface("headers", flattenHeaders(resp.Headers)).
			Int("body_size", len(resp.Body)).
			Str("body_truncated", strconv.FormatBool(len(resp.Body) > maxBytes)).
			Bytes("body_preview", payloadPreview(resp.Body, maxBytes)).
			Msg("REST client response")
	}
}

func (c *client) maxPayloadBytes() int {
	if c.config.MaxPayloadLogBytes > 0 {
		return c.config.MaxPayloadLogBytes
	}
	return DefaultMaxPayloadLogBytes
}

// flattenHeaders collapses multi-value headers into a single string per
// key so the redaction filter can inspect them.
func flattenHeaders(h nethttp.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	flat := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) == 1 {
			flat[key] = values[0]
			continue
		}
		joined := ""
		for i, v := range values {
			if i > 0 {
				joined += ", "
			}
			joined += v
		}
		flat[key] = joined
	}
	return flat
}

func payloadPreview(body []byte, max int) []byte {
	if len(body) <= max {
		return body
	}
	return body[:max]
}
