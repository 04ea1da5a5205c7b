package validation

import (
	"strconv"
	"strings"

	"payloadbridge/internal/domain"
	apperrors "payloadbridge/internal/errors"
)

const invalidPayloadMessage = "invalid order payload"

// Validate checks an order payload against its presence and cross-field
// rules. Every violation is reported; the returned error is a
// *apperrors.ValidationError or nil.
func Validate(payload domain.OrderPayload) error {
	var details []apperrors.ValidationDetail

	details = append(details, validateHeader(payload.OrderHeader)...)

	if len(payload.OrderLines) == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "orderLines",
			Message: "at least one order line is required",
		})
	}

	for idx, line := range payload.OrderLines {
		details = append(details, validateLine("orderLines["+strconv.Itoa(idx)+"].", line)...)
	}

	if len(details) > 0 {
		return apperrors.NewValidationError(invalidPayloadMessage, details...)
	}

	return nil
}

func validateHeader(h domain.OrderHeader) []apperrors.ValidationDetail {
	var details []apperrors.ValidationDetail

	required := []struct {
		field string
		value string
	}{
		{"orderType", h.OrderType},
		{"orderCategory", h.OrderCategory},
		{"businessUnit", h.BusinessUnit},
		{"hdrEffectiveStartDate", h.HdrEffectiveStartDate},
		{"hdrBillToCustAccountNum", h.HdrBillToCustAccountNum},
	}
	for _, r := range required {
		if isBlank(r.value) {
			details = append(details, requiredDetail(r.field))
		}
	}

	details = append(details, validateDate("hdrEffectiveStartDate", h.HdrEffectiveStartDate)...)
	if h.HdrEffectiveEndDate != nil {
		details = append(details, validateDate("hdrEffectiveEndDate", *h.HdrEffectiveEndDate)...)
	}

	details = append(details, validateEvergreen("hdrEvergreenFlag", "hdrEffectiveEndDate", h.HdrEvergreenFlag, h.HdrEffectiveEndDate)...)

	return details
}

func validateLine(prefix string, l domain.OrderLine) []apperrors.ValidationDetail {
	var details []apperrors.ValidationDetail

	required := []struct {
		field string
		value string
	}{
		{"lineNumber", l.LineNumber},
		{"lineType", l.LineType},
		{"lineEffectiveStartDate", l.LineEffectiveStartDate},
	}
	for _, r := range required {
		if isBlank(r.value) {
			details = append(details, requiredDetail(prefix+r.field))
		}
	}

	details = append(details, validateDate(prefix+"lineEffectiveStartDate", l.LineEffectiveStartDate)...)
	if l.LineEffectiveEndDate != nil {
		details = append(details, validateDate(prefix+"lineEffectiveEndDate", *l.LineEffectiveEndDate)...)
	}

	details = append(details, validateEvergreen(prefix+"lineEvergreenFlag", prefix+"lineEffectiveEndDate", l.LineEvergreenFlag, l.LineEffectiveEndDate)...)

	if l.Quantity != nil && *l.Quantity < 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   prefix + "quantity",
			Message: prefix + "quantity must be non-negative",
		})
	}
	if l.UnitPrice != nil && *l.UnitPrice < 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   prefix + "unitPrice",
			Message: prefix + "unitPrice must be non-negative",
		})
	}

	return details
}

// validateEvergreen applies the evergreen rule used for headers and lines
// alike: Y forbids an end date, N requires one. A blank end date counts as
// absent.
func validateEvergreen(flagField, endField string, flag domain.EvergreenFlag, endDate *string) []apperrors.ValidationDetail {
	if flag == "" {
		return nil
	}
	if !flag.Valid() {
		return []apperrors.ValidationDetail{{
			Field:   flagField,
			Message: flagField + " must be Y or N",
		}}
	}

	hasEnd := endDate != nil && !isBlank(*endDate)
	switch {
	case flag == domain.EvergreenYes && hasEnd:
		return []apperrors.ValidationDetail{{
			Field:   endField,
			Message: endField + " should not be set if " + flagField + " is Y",
		}}
	case flag == domain.EvergreenNo && !hasEnd:
		return []apperrors.ValidationDetail{{
			Field:   endField,
			Message: endField + " is required if " + flagField + " is N",
		}}
	}
	return nil
}

// validateDate reports a malformed date. Blank values are left to the
// presence checks.
func validateDate(field, value string) []apperrors.ValidationDetail {
	if isBlank(value) {
		return nil
	}
	if _, err := domain.ParseDate(value); err != nil {
		return []apperrors.ValidationDetail{{
			Field:   field,
			Message: field + " must be a date in YYYY-MM-DD format",
		}}
	}
	return nil
}

func requiredDetail(field string) apperrors.ValidationDetail {
	return apperrors.ValidationDetail{
		Field:   field,
		Message: field + " is required",
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
