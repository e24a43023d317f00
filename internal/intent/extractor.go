// internal/intent/extractor.go
package intent

import (
	"context"
	"encoding/json"
)

// Extractor is the black-box structured extractor: given a prompt containing
// recent messages and a response schema, it returns best-effort structured
// JSON. It may return nulls for unknown fields and is not guaranteed
// deterministic; all parsing here is defensive.
type Extractor interface {
	Extract(ctx context.Context, prompt string) (json.RawMessage, error)
}
