package transformer

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gosight/optimizer/internal/events"
)

func decode(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	return raw
}

func TestTransformEvent_FullPayload(t *testing.T) {
	raw := decode(t, `{
		"event_id": "8d7f4a4e-6d0b-4f8e-9a57-0d2f3c1b9e11",
		"type": "EVENT_TYPE_RAGE_CLICK",
		"project_id": "shop-1",
		"session_id": "s-1",
		"timestamp": 1700000000000,
		"page": {"viewport_width": 1280, "viewport_height": 800},
		"payload": {
			"x": 120, "y": 340,
			"target_selector": "#add-to-cart",
			"target_text": "Add to cart",
			"section_id": "pdp-hero",
			"click_count": 6
		}
	}`)

	ev, err := TransformEvent(raw)
	require.NoError(t, err)

	assert.Equal(t, "8d7f4a4e-6d0b-4f8e-9a57-0d2f3c1b9e11", ev.ID)
	assert.Equal(t, events.TypeRageClick, ev.Type)
	assert.Equal(t, "shop-1", ev.ProjectID)
	assert.Equal(t, int64(1700000000000), ev.Timestamp)
	require.NotNil(t, ev.Viewport)
	assert.Equal(t, 800.0, ev.Viewport.Height)
	p, ok := ev.Position()
	require.True(t, ok)
	assert.Equal(t, events.Point{X: 120, Y: 340}, p)
	assert.Equal(t, "#add-to-cart", ev.ElementSelector)
	assert.Equal(t, "Add to cart", ev.ElementText)
	assert.Equal(t, "pdp-hero", ev.SectionID)
	assert.Equal(t, 6, ev.ClickCount)
}

func TestTransformEvent_GeneratesIDForNonUUID(t *testing.T) {
	ev, err := TransformEvent(decode(t, `{"event_id":"abc","type":"click","session_id":"s"}`))
	require.NoError(t, err)
	_, perr := uuid.Parse(ev.ID)
	assert.NoError(t, perr)
}

func TestTransformEvent_RejectsMissingFields(t *testing.T) {
	_, err := TransformEvent(decode(t, `{"session_id":"s"}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = TransformEvent(decode(t, `{"type":"click"}`))
	assert.ErrorIs(t, err, ErrMissingSession)
}

func TestTransformEvent_PayloadViewportFallback(t *testing.T) {
	ev, err := TransformEvent(decode(t, `{
		"type": "scroll_depth", "session_id": "s",
		"payload": {"scroll_depth": 35, "viewport": {"width": 390, "height": 844}}
	}`))
	require.NoError(t, err)
	require.NotNil(t, ev.ScrollDepth)
	assert.Equal(t, 35.0, *ev.ScrollDepth)
	require.NotNil(t, ev.Viewport)
	assert.Equal(t, 844.0, ev.Viewport.Height)
	assert.Nil(t, ev.X)
}

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, events.TypeAddToCart, normalizeType("EVENT_TYPE_ADD_TO_CART"))
	assert.Equal(t, events.TypePriceCheck, normalizeType("PRICE_CHECK"))
	assert.Equal(t, events.Type(""), normalizeType(""))
}
