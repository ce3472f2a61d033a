// Package extraction turns approval documents into the raw compliance field
// mapping. It is a thin collaborator around a chat-completion API: the
// engine treats it as a black box producing possibly-partial fields.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/tradefin/cfaam/internal/contracts"
	"github.com/tradefin/cfaam/pkg/config"
	"github.com/tradefin/cfaam/pkg/logger"
)

// Documents larger than this are truncated before being sent to the model.
const maxDocumentChars = 120_000

const extractionPrompt = `Based on the content of the provided trade finance approval document,
extract the following fields and return them as a valid JSON object.

- CFAAM_Ref: The unique reference number for the transaction.
- Importer_Name: The full name of the importing company.
- Date_Submitted: The date the document was submitted or created.
- Currency_and_Amount: The currency code and the total amount.
- Expiry_Date: The expiry date of the facility.
- Returns_Frequency: The frequency at which returns must be submitted (e.g., Quarterly).
- Condition_Text: The full text of the critical compliance condition related to submitting performance reports.

Format all dates as 'DD MMMM YYYY'. Use empty strings for fields that are not present.

Document:
`

// Service extracts compliance fields from document bytes.
type Service struct {
	client *openai.Client
	model  string
	log    *logger.Logger
}

// NewService creates an extraction service from config. A missing API key is
// a configuration error.
func NewService(cfg *config.Config, log *logger.Logger) (*Service, error) {
	if cfg.Extraction.APIKey == "" {
		return nil, fmt.Errorf("extraction service requires EXTRACTION_API_KEY")
	}

	clientCfg := openai.DefaultConfig(cfg.Extraction.APIKey)
	if cfg.Extraction.BaseURL != "" {
		clientCfg.BaseURL = cfg.Extraction.BaseURL
	}

	return &Service{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Extraction.Model,
		log:    log,
	}, nil
}

// Extract sends the document text to the model and decodes the JSON field
// mapping. HTML documents are reduced to visible text first.
func (s *Service) Extract(ctx context.Context, filename string, data []byte) (contracts.ExtractedFields, error) {
	var fields contracts.ExtractedFields

	text := documentText(filename, data)
	if strings.TrimSpace(text) == "" {
		return fields, fmt.Errorf("document %s has no extractable text", filename)
	}
	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars]
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: extractionPrompt + text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return fields, fmt.Errorf("extraction completion for %s: %w", filename, err)
	}
	if len(resp.Choices) == 0 {
		return fields, fmt.Errorf("extraction for %s returned no choices", filename)
	}

	raw := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return fields, fmt.Errorf("decode extraction response for %s: %w", filename, err)
	}

	s.log.WithFields(map[string]interface{}{
		"file":      filename,
		"cfaam_ref": fields.CFAAMRef,
	}).Info("Document fields extracted")

	return fields, nil
}
