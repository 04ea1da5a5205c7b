package domain

import (
	"regexp"
	"time"
)

// DateLayout is the calendar date format used by every date field of an
// order payload.
const DateLayout = "2006-01-02"

type EvergreenFlag string

const (
	EvergreenYes EvergreenFlag = "Y"
	EvergreenNo  EvergreenFlag = "N"
)

func (f EvergreenFlag) Valid() bool {
	return f == EvergreenYes || f == EvergreenNo
}

// OrderHeader fields live at the top level of the JSON payload.
type OrderHeader struct {
	OrderNumber             *string       `json:"orderNumber,omitempty"`
	OrderType               string        `json:"orderType"`
	OrderCategory           string        `json:"orderCategory"`
	BusinessUnit            string        `json:"businessUnit"`
	HdrEffectiveStartDate   string        `json:"hdrEffectiveStartDate"`
	HdrEffectiveEndDate     *string       `json:"hdrEffectiveEndDate,omitempty"`
	HdrBillToCustAccountNum string        `json:"hdrBillToCustAccountNum"`
	HdrEvergreenFlag        EvergreenFlag `json:"hdrEvergreenFlag,omitempty"`
}

type OrderLine struct {
	LineNumber             string        `json:"lineNumber"`
	LineType               string        `json:"lineType"`
	LineEffectiveStartDate string        `json:"lineEffectiveStartDate"`
	LineEffectiveEndDate   *string       `json:"lineEffectiveEndDate,omitempty"`
	LineEvergreenFlag      EvergreenFlag `json:"lineEvergreenFlag,omitempty"`
	ItemName               *string       `json:"itemName,omitempty"`
	ItemDescription        *string       `json:"itemDescription,omitempty"`
	UOM                    *string       `json:"uom,omitempty"`
	Quantity               *float64      `json:"quantity,omitempty"`
	UnitPrice              *float64      `json:"unitPrice,omitempty"`
	LineStatus             *string       `json:"lineStatus,omitempty"`
	TrackingOptions        *string       `json:"trackingOptions,omitempty"`
	LineBillingCycle       *string       `json:"lineBillingCycle,omitempty"`
	LineBillingFrequency   *string       `json:"lineBillingFrequency,omitempty"`
	LineInvoicingRule      *string       `json:"lineInvoicingRule,omitempty"`
	LineBillingChannel     *string       `json:"lineBillingChannel,omitempty"`
	LineDeliveryChannel    *string       `json:"lineDeliveryChannel,omitempty"`
}

type OrderPayload struct {
	OrderHeader
	OrderLines []OrderLine `json:"orderLines"`
}

// ParseDate parses a payload date. Surrounding whitespace is not accepted.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// ForwardingHeaders is the minimal header set the identity service grants
// for one downstream call.
type ForwardingHeaders struct {
	ForwardedUser    string
	TenantIdentifier string
	HostName         string
	Authorization    string
}

const (
	HeaderForwardedUser    = "x-forwarded-user"
	HeaderTenantIdentifier = "tenantIdentifier"
	HeaderHostName         = "hostName"
	HeaderAuthorization    = "Authorization"
	HeaderAccessToken      = "access_token"
)

// Map returns the headers keyed by their wire names.
func (h ForwardingHeaders) Map() map[string]string {
	return map[string]string{
		HeaderForwardedUser:    h.ForwardedUser,
		HeaderTenantIdentifier: h.TenantIdentifier,
		HeaderHostName:         h.HostName,
		HeaderAuthorization:    h.Authorization,
	}
}

var hostNamePattern = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)

// ValidHostName reports whether s is safe to place in a header or URL host.
func ValidHostName(s string) bool {
	return hostNamePattern.MatchString(s)
}
