package events

// Type identifies what the shopper did
type Type string

const (
	TypeClick           Type = "click"
	TypeRageClick       Type = "rage_click"
	TypeDeadClick       Type = "dead_click"
	TypeDoubleClick     Type = "double_click"
	TypeScrollDepth     Type = "scroll_depth"
	TypeHoverIntent     Type = "hover_intent"
	TypeTextSelection   Type = "text_selection"
	TypePageView        Type = "page_view"
	TypeSectionView     Type = "section_view"
	TypeProductView     Type = "product_view"
	TypeAddToCart       Type = "add_to_cart"
	TypeCheckoutStart   Type = "checkout_start"
	TypePurchase        Type = "purchase"
	TypeBounce          Type = "bounce"
	TypeFormError       Type = "form_error"
	TypeFormBlur        Type = "form_blur"
	TypePriceCheck      Type = "price_check"
	TypeScrollReversal  Type = "scroll_reversal"
	TypeCheckoutAbandon Type = "checkout_abandon"
	TypeExitIntent      Type = "exit_intent"
)

// Point is a position in page coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the visible browser area when the event fired
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Event is a single tracked interaction. Events are produced by the tracking
// layer and are never modified here.
type Event struct {
	ID               string    `json:"id"`
	ProjectID        string    `json:"project_id"`
	SessionID        string    `json:"session_id"`
	Type             Type      `json:"type"`
	Timestamp        int64     `json:"timestamp"` // unix ms
	X                *float64  `json:"x,omitempty"`
	Y                *float64  `json:"y,omitempty"`
	ElementSelector  string    `json:"element_selector,omitempty"`
	ElementText      string    `json:"element_text,omitempty"`
	SectionID        string    `json:"section_id,omitempty"`
	ScrollDepth      *float64  `json:"scroll_depth,omitempty"`
	Viewport         *Viewport `json:"viewport,omitempty"`
	ClickCount       int       `json:"click_count,omitempty"`
	InferredBehavior string    `json:"inferred_behavior,omitempty"`
}

// Position returns the event coordinates when both are present
func (e Event) Position() (Point, bool) {
	if e.X == nil || e.Y == nil {
		return Point{}, false
	}
	return Point{X: *e.X, Y: *e.Y}, true
}

// Sessions returns the distinct session ids in first-seen order
func Sessions(evs []Event) []string {
	seen := make(map[string]struct{}, len(evs))
	var ids []string
	for _, e := range evs {
		if e.SessionID == "" {
			continue
		}
		if _, ok := seen[e.SessionID]; ok {
			continue
		}
		seen[e.SessionID] = struct{}{}
		ids = append(ids, e.SessionID)
	}
	return ids
}

// CountSessions returns the number of distinct sessions
func CountSessions(evs []Event) int {
	return len(Sessions(evs))
}

// OfType returns the events matching t, preserving order
func OfType(evs []Event, t Type) []Event {
	var out []Event
	for _, e := range evs {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Float is a helper for building optional coordinates
func Float(v float64) *float64 {
	return &v
}
