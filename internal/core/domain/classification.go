package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FallbackCategory receives everything that cannot be filed anywhere else:
// non-classification responses, out-of-list categories, parse failures.
const FallbackCategory = "misc"

type Classification struct {
	Category      string   `json:"category"`
	Confidence    float64  `json:"confidence"`
	Subcategory   string   `json:"subcategory,omitempty"`
	Summary       string   `json:"summary"`
	Tags          []string `json:"tags"`
	InputFilename string   `json:"input_filename"`
}

// FallbackClassification is the record produced when the model response
// cannot be decoded or validated. The reason ends up in the summary so the
// artifact stays diagnosable.
func FallbackClassification(reason string) Classification {
	return Classification{
		Category:    FallbackCategory,
		Confidence:  0.0,
		Subcategory: "parsing_error",
		Summary:     "Error parsing classification: " + reason,
		Tags:        []string{"error", "parsing_failed"},
	}
}

// classificationPayload uses pointers for the required fields so that a
// missing key is distinguishable from a zero value.
type classificationPayload struct {
	Category    *string   `json:"category"`
	Confidence  *float64  `json:"confidence"`
	Subcategory string    `json:"subcategory"`
	Summary     *string   `json:"summary"`
	Tags        *[]string `json:"tags"`
}

// ParseClassification decodes and validates a raw model response against the
// configured category set. It always returns a usable Classification: when
// the returned error is non-nil the Classification is the fallback record and
// the error carries the reason. Model output is adversarial text; nothing
// here may panic or propagate a decode failure to the pipeline.
func ParseClassification(raw string, allowed []string) (Classification, error) {
	var payload classificationPayload
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		reason := fmt.Sprintf("decode classification json: %v", err)
		return FallbackClassification(reason), fmt.Errorf("%s", reason)
	}

	if err := validatePayload(payload, allowed); err != nil {
		return FallbackClassification(err.Error()), err
	}

	return Classification{
		Category:    *payload.Category,
		Confidence:  *payload.Confidence,
		Subcategory: payload.Subcategory,
		Summary:     *payload.Summary,
		Tags:        *payload.Tags,
	}, nil
}

func validatePayload(p classificationPayload, allowed []string) error {
	switch {
	case p.Category == nil:
		return fmt.Errorf("missing required field: category")
	case p.Confidence == nil:
		return fmt.Errorf("missing required field: confidence")
	case p.Summary == nil:
		return fmt.Errorf("missing required field: summary")
	case p.Tags == nil:
		return fmt.Errorf("missing required field: tags")
	}

	if !CategoryAllowed(*p.Category, allowed) {
		return fmt.Errorf("invalid category: %s", *p.Category)
	}
	if *p.Confidence < 0.0 || *p.Confidence > 1.0 {
		return fmt.Errorf("invalid confidence score: %v", *p.Confidence)
	}
	return nil
}

func CategoryAllowed(category string, allowed []string) bool {
	for _, c := range allowed {
		if c == category {
			return true
		}
	}
	return false
}

// extractJSONObject returns the largest {...} span so that prose around the
// object is ignored. With no braces present the raw text is returned and left
// to the decoder to reject.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
