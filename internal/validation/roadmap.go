package validation

import (
	"fmt"

	"github.com/hyperengineering/protrack/internal/types"
)

const (
	// MaxActionLength bounds the chatbot action name.
	MaxActionLength = 200
	// MaxDataValueLength bounds each string value in chatbot data.
	MaxDataValueLength = 10000
)

// ValidateCreateRoadmapRequest checks the request envelope. The form data
// itself is validated by its category schema.
func ValidateCreateRoadmapRequest(req types.CreateRoadmapRequest) []ValidationError {
	var c Collector

	if err := ValidateRequired("category", req.Category); err != nil {
		c.Add(err)
	} else {
		c.Add(ValidateEnum("category", req.Category, types.CategoryNames()))
	}

	if err := ValidateRequired("startDate", req.StartDate); err != nil {
		c.Add(err)
	} else {
		c.Add(ValidateStartDate("startDate", req.StartDate))
	}

	if len(req.FormData) == 0 || string(req.FormData) == "null" {
		c.Add(&ValidationError{Field: "formData", Message: "is required"})
	}

	return c.Errors()
}

// ValidateStartDate checks a plan start date. It must leave room for a full
// plan before types.LastDate.
func ValidateStartDate(field, value string) *ValidationError {
	if err := ValidateDate(field, value); err != nil {
		return err
	}
	if d, _ := types.ParseDate(value); d.After(types.LastStartDate) {
		return &ValidationError{
			Field:   field,
			Message: "must be on or before " + types.LastStartDate.String(),
		}
	}
	return nil
}

// ValidateCategoryFilter checks the optional category query parameter.
func ValidateCategoryFilter(value string) *ValidationError {
	if value == "" {
		return nil
	}
	return ValidateEnum("category", value, types.CategoryNames())
}

// ValidateChatbotRequest checks string content in a chatbot request. A
// missing action is left to the dispatcher, which owns that message.
func ValidateChatbotRequest(action string, data map[string]any) []ValidationError {
	var c Collector

	if action != "" {
		c.Add(ValidateMaxLength("action", action, MaxActionLength))
		c.Add(ValidateNoNullBytes("action", action))
	}

	for key, v := range data {
		s, ok := v.(string)
		if !ok {
			continue
		}
		field := fmt.Sprintf("data.%s", key)
		c.Add(ValidateUTF8(field, s))
		c.Add(ValidateNoNullBytes(field, s))
		c.Add(ValidateMaxLength(field, s, MaxDataValueLength))
	}

	return c.Errors()
}
