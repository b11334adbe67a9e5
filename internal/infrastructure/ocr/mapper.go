package ocr

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ecoreceipt/backend/internal/domain"
)

// ParseResponse is the OCR API response body
type ParseResponse struct {
	ParsedResults         []ParsedResult `json:"ParsedResults"`
	OCRExitCode           int            `json:"OCRExitCode"`
	IsErroredOnProcessing bool           `json:"IsErroredOnProcessing"`
	ErrorMessage          Messages       `json:"ErrorMessage"`
	ErrorDetails          string         `json:"ErrorDetails"`
}

// ParsedResult is the text recognized on one page or image
type ParsedResult struct {
	ParsedText        string `json:"ParsedText"`
	FileParseExitCode int    `json:"FileParseExitCode"`
	ErrorMessage      string `json:"ErrorMessage"`
	ErrorDetails      string `json:"ErrorDetails"`
}

// Messages accepts the API's error message as either a string or a list of strings
type Messages []string

func (m *Messages) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*m = nil
		} else {
			*m = Messages{single}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("error message is neither string nor list: %w", err)
	}
	*m = list
	return nil
}

// ParsedText joins the text of every parsed result with newlines.
// A response flagged as errored maps to ErrOCRFailure carrying the API's messages.
func ParsedText(resp *ParseResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: empty response", domain.ErrOCRFailure)
	}

	if resp.IsErroredOnProcessing {
		msgs := append([]string{}, resp.ErrorMessage...)
		if resp.ErrorDetails != "" {
			msgs = append(msgs, resp.ErrorDetails)
		}
		if len(msgs) == 0 {
			msgs = []string{fmt.Sprintf("exit code %d", resp.OCRExitCode)}
		}
		return "", fmt.Errorf("%w: %s", domain.ErrOCRFailure, strings.Join(msgs, "; "))
	}

	texts := make([]string, 0, len(resp.ParsedResults))
	for _, r := range resp.ParsedResults {
		text := strings.TrimRight(r.ParsedText, "\r\n")
		if text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n"), nil
}
