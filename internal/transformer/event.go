package transformer

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/gosight/gosight/optimizer/internal/events"
)

var (
	ErrMissingType    = errors.New("event has no type")
	ErrMissingSession = errors.New("event has no session_id")
)

// eventTypeAliases maps SDK proto enum names to simple type names
var eventTypeAliases = map[string]events.Type{
	"EVENT_TYPE_CLICK":            events.TypeClick,
	"EVENT_TYPE_RAGE_CLICK":       events.TypeRageClick,
	"EVENT_TYPE_DEAD_CLICK":       events.TypeDeadClick,
	"EVENT_TYPE_DOUBLE_CLICK":     events.TypeDoubleClick,
	"EVENT_TYPE_SCROLL":           events.TypeScrollDepth,
	"EVENT_TYPE_SCROLL_DEPTH":     events.TypeScrollDepth,
	"EVENT_TYPE_HOVER_INTENT":     events.TypeHoverIntent,
	"EVENT_TYPE_TEXT_SELECTION":   events.TypeTextSelection,
	"EVENT_TYPE_PAGE_VIEW":        events.TypePageView,
	"EVENT_TYPE_SECTION_VIEW":     events.TypeSectionView,
	"EVENT_TYPE_PRODUCT_VIEW":     events.TypeProductView,
	"EVENT_TYPE_ADD_TO_CART":      events.TypeAddToCart,
	"EVENT_TYPE_CHECKOUT_START":   events.TypeCheckoutStart,
	"EVENT_TYPE_PURCHASE":         events.TypePurchase,
	"EVENT_TYPE_BOUNCE":           events.TypeBounce,
	"EVENT_TYPE_FORM_ERROR":       events.TypeFormError,
	"EVENT_TYPE_FORM_BLUR":        events.TypeFormBlur,
	"EVENT_TYPE_PRICE_CHECK":      events.TypePriceCheck,
	"EVENT_TYPE_SCROLL_REVERSAL":  events.TypeScrollReversal,
	"EVENT_TYPE_CHECKOUT_ABANDON": events.TypeCheckoutAbandon,
	"EVENT_TYPE_EXIT_INTENT":      events.TypeExitIntent,
}

// TransformEvent converts a raw event decoded from Kafka into an events.Event
func TransformEvent(raw map[string]interface{}) (*events.Event, error) {
	event := &events.Event{
		ProjectID: getString(raw, "project_id"),
		SessionID: getString(raw, "session_id"),
		Type:      normalizeType(getString(raw, "type")),
	}

	if event.Type == "" {
		return nil, ErrMissingType
	}
	if event.SessionID == "" {
		return nil, ErrMissingSession
	}

	// Keep the tracker's id when it is a UUID, otherwise mint one
	if v := getString(raw, "event_id"); v != "" {
		if _, err := uuid.Parse(v); err == nil {
			event.ID = v
		}
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	if v, ok := raw["timestamp"].(float64); ok {
		event.Timestamp = int64(v)
	}

	// Viewport dimensions travel with the page info
	if page, ok := raw["page"].(map[string]interface{}); ok {
		w := getFloat64Ptr(page, "viewport_width")
		h := getFloat64Ptr(page, "viewport_height")
		if w != nil && h != nil {
			event.Viewport = &events.Viewport{Width: *w, Height: *h}
		}
	}

	payload, ok := raw["payload"].(map[string]interface{})
	if !ok {
		return event, nil
	}

	event.X = getFloat64Ptr(payload, "x")
	event.Y = getFloat64Ptr(payload, "y")
	event.ElementSelector = getString(payload, "target_selector")
	event.ElementText = getString(payload, "target_text")
	event.SectionID = getString(payload, "section_id")
	event.ScrollDepth = getFloat64Ptr(payload, "scroll_depth")
	event.InferredBehavior = getString(payload, "inferred_behavior")
	if v, ok := payload["click_count"].(float64); ok {
		event.ClickCount = int(v)
	}

	// Older SDKs send the viewport inside the payload
	if event.Viewport == nil {
		if vp, ok := payload["viewport"].(map[string]interface{}); ok {
			w := getFloat64Ptr(vp, "width")
			h := getFloat64Ptr(vp, "height")
			if w != nil && h != nil {
				event.Viewport = &events.Viewport{Width: *w, Height: *h}
			}
		}
	}

	return event, nil
}

func normalizeType(t string) events.Type {
	if t == "" {
		return ""
	}
	if alias, ok := eventTypeAliases[t]; ok {
		return alias
	}
	return events.Type(strings.ToLower(t))
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getFloat64Ptr(m map[string]interface{}, key string) *float64 {
	if v, ok := m[key].(float64); ok {
		return &v
	}
	return nil
}
