package fixes

import (
	"github.com/gosight/gosight/optimizer/internal/identity"
)

// ChangeType is the kind of edit an ElementChange makes
type ChangeType string

const (
	ChangeStyle      ChangeType = "style"
	ChangeContent    ChangeType = "content"
	ChangeVisibility ChangeType = "visibility"
	ChangeLayout     ChangeType = "layout"
	ChangeAttribute  ChangeType = "attribute"
)

// ElementChange is a declarative edit to one storefront component
type ElementChange struct {
	Selector      string     `json:"selector"`
	ComponentPath string     `json:"component_path"`
	ChangeType    ChangeType `json:"change_type"`
	Property      string     `json:"property"`
	OldValue      string     `json:"old_value"`
	NewValue      string     `json:"new_value"`
	Reason        string     `json:"reason"`
}

// FixRule applies Changes when State is classified and Flag is active
type FixRule struct {
	IdentityState  identity.State  `json:"identity_state"`
	Flag           Flag            `json:"recommendation_flag"`
	Priority       int             `json:"priority"`
	Changes        []ElementChange `json:"changes"`
	Summary        string          `json:"summary"`
	ExpectedImpact string          `json:"expected_impact"`
}

const (
	compAddToCart   = "components/product/AddToCartButton"
	compProductGrid = "components/catalog/ProductGrid"
	compDetails     = "components/product/ProductDetails"
	compHeader      = "components/layout/Header"
	compHelp        = "components/support/HelpWidget"
	compTrust       = "components/product/TrustBadges"
	compCheckout    = "components/checkout/CheckoutButton"
	compProgress    = "components/checkout/ProgressBar"
	compCompare     = "components/product/ComparisonTable"
	compStock       = "components/product/StockBadge"
	compFeed        = "components/home/RecommendationsFeed"
	compFilters     = "components/catalog/FilterPanel"
)

// DefaultRules is the static rule table. Order is irrelevant; the mapper
// sorts by priority.
var DefaultRules = []FixRule{
	{
		IdentityState: identity.StateFrustrated,
		Flag:          FlagSimplifyLayout,
		Priority:      90,
		Summary:       "Strip distractions around the purchase path",
		Changes: []ElementChange{
			{"[data-testid=product-grid]", compProductGrid, ChangeLayout, "columns", "4", "3", "Fewer columns give each product a larger click target"},
			{"header nav .promo-banner", compHeader, ChangeVisibility, "display", "block", "none", "Remove the promo banner competing for attention"},
		},
		ExpectedImpact: "Fewer rage clicks on the product grid",
	},
	{
		IdentityState: identity.StateFrustrated,
		Flag:          FlagShowHelp,
		Priority:      85,
		Summary:       "Offer help before the shopper gives up",
		Changes: []ElementChange{
			{"#help-widget", compHelp, ChangeVisibility, "autoOpen", "false", "true", "Open live help after repeated failed clicks"},
		},
		ExpectedImpact: "Recovers sessions that would otherwise bounce",
	},
	{
		IdentityState: identity.StateFrustrated,
		Flag:          FlagHighlightCTA,
		Priority:      80,
		Summary:       "Make the add to cart button unmistakable",
		Changes: []ElementChange{
			{"button.add-to-cart", compAddToCart, ChangeStyle, "size", "md", "lg", "A larger button is easier to hit"},
			{"button.add-to-cart", compAddToCart, ChangeAttribute, "aria-busy", "", "true while pending", "Show that the click registered"},
		},
		ExpectedImpact: "Higher add to cart success rate",
	},
	{
		IdentityState: identity.StateFrustrated,
		Flag:          densityFlags[DensityMinimal],
		Priority:      60,
		Summary:       "Collapse secondary product details",
		Changes: []ElementChange{
			{"[data-testid=product-grid]", compProductGrid, ChangeLayout, "columns", "4", "2", "Show fewer products at once"},
			{".product-details .specs", compDetails, ChangeVisibility, "collapsed", "false", "true", "Hide the spec table behind a toggle"},
		},
		ExpectedImpact: "Less scanning before the main action",
	},
	{
		IdentityState: identity.StateOverwhelmed,
		Flag:          FlagReduceChoices,
		Priority:      90,
		Summary:       "Narrow the catalog to fewer options",
		Changes: []ElementChange{
			{"[data-testid=product-grid]", compProductGrid, ChangeAttribute, "pageSize", "48", "12", "Smaller pages reduce choice overload"},
			{".filter-panel", compFilters, ChangeLayout, "defaultExpanded", "all", "top3", "Only the most used filters start expanded"},
		},
		ExpectedImpact: "More product views per session",
	},
	{
		IdentityState: identity.StateOverwhelmed,
		Flag:          FlagSimplifyLayout,
		Priority:      85,
		Summary:       "Remove secondary navigation noise",
		Changes: []ElementChange{
			{"header nav .promo-banner", compHeader, ChangeVisibility, "display", "block", "none", "Remove the promo banner competing for attention"},
		},
		ExpectedImpact: "Less time spent scanning the page",
	},
	{
		IdentityState: identity.StateOverwhelmed,
		Flag:          FlagProgressIndicator,
		Priority:      70,
		Summary:       "Show where the shopper is in checkout",
		Changes: []ElementChange{
			{".checkout-progress", compProgress, ChangeVisibility, "display", "none", "flex", "A visible progress bar shortens the perceived path"},
		},
		ExpectedImpact: "Lower checkout abandonment",
	},
	{
		IdentityState: identity.StateOverwhelmed,
		Flag:          densityFlags[DensityMinimal],
		Priority:      60,
		Summary:       "Collapse secondary product details",
		Changes: []ElementChange{
			{".product-details .specs", compDetails, ChangeVisibility, "collapsed", "false", "true", "Hide the spec table behind a toggle"},
		},
		ExpectedImpact: "Less scanning before the main action",
	},
	{
		IdentityState: identity.StateConfident,
		Flag:          FlagExpressCheckout,
		Priority:      90,
		Summary:       "Let confident shoppers skip the cart",
		Changes: []ElementChange{
			{"#express-checkout", compCheckout, ChangeVisibility, "display", "none", "block", "Offer one click checkout on the product page"},
		},
		ExpectedImpact: "Shorter time to purchase",
	},
	{
		IdentityState: identity.StateConfident,
		Flag:          FlagHighlightCTA,
		Priority:      70,
		Summary:       "Keep the primary action in view",
		Changes: []ElementChange{
			{"button.add-to-cart", compAddToCart, ChangeLayout, "position", "static", "sticky", "Pin the button while scrolling"},
		},
		ExpectedImpact: "Higher add to cart rate",
	},
	{
		IdentityState: identity.StateReadyToDecide,
		Flag:          FlagTrustSignals,
		Priority:      85,
		Summary:       "Reassure at the moment of decision",
		Changes: []ElementChange{
			{".trust-badges", compTrust, ChangeVisibility, "display", "none", "flex", "Show returns and secure payment badges near the price"},
		},
		ExpectedImpact: "Higher checkout start rate",
	},
	{
		IdentityState: identity.StateReadyToDecide,
		Flag:          FlagExpressCheckout,
		Priority:      80,
		Summary:       "Let decided shoppers skip the cart",
		Changes: []ElementChange{
			{"#express-checkout", compCheckout, ChangeVisibility, "display", "none", "block", "Offer one click checkout on the product page"},
		},
		ExpectedImpact: "Shorter time to purchase",
	},
	{
		IdentityState: identity.StateReadyToDecide,
		Flag:          FlagUrgencyCues,
		Priority:      60,
		Summary:       "Show honest stock levels",
		Changes: []ElementChange{
			{".stock-badge", compStock, ChangeContent, "text", "In stock", "Only {n} left", "Low stock is a real reason to act now"},
		},
		ExpectedImpact: "Fewer deferred purchases",
	},
	{
		IdentityState: identity.StateComparisonFocused,
		Flag:          FlagComparisonTools,
		Priority:      90,
		Summary:       "Make side by side comparison easy",
		Changes: []ElementChange{
			{".compare-toggle", compCompare, ChangeVisibility, "display", "none", "inline-flex", "Expose the compare checkbox on product cards"},
			{".comparison-table", compCompare, ChangeAttribute, "maxItems", "2", "4", "Allow comparing more products at once"},
		},
		ExpectedImpact: "Shorter research phase",
	},
	{
		IdentityState: identity.StateComparisonFocused,
		Flag:          densityFlags[DensityDetailed],
		Priority:      70,
		Summary:       "Surface full specifications",
		Changes: []ElementChange{
			{".product-details .specs", compDetails, ChangeVisibility, "collapsed", "true", "false", "Comparers need the spec table open"},
		},
		ExpectedImpact: "Fewer tab switches between products",
	},
	{
		IdentityState: identity.StateImpulseBuyer,
		Flag:          FlagExpressCheckout,
		Priority:      95,
		Summary:       "Remove every step between desire and purchase",
		Changes: []ElementChange{
			{"#express-checkout", compCheckout, ChangeVisibility, "display", "none", "block", "Offer one click checkout on the product page"},
			{"#express-checkout", compCheckout, ChangeStyle, "variant", "secondary", "primary", "Make express checkout the primary action"},
		},
		ExpectedImpact: "Higher impulse conversion",
	},
	{
		IdentityState: identity.StateImpulseBuyer,
		Flag:          FlagUrgencyCues,
		Priority:      75,
		Summary:       "Show honest stock levels",
		Changes: []ElementChange{
			{".stock-badge", compStock, ChangeContent, "text", "In stock", "Only {n} left", "Low stock is a real reason to act now"},
		},
		ExpectedImpact: "Fewer deferred purchases",
	},
	{
		IdentityState: identity.StateImpulseBuyer,
		Flag:          FlagHighlightCTA,
		Priority:      70,
		Summary:       "Keep the primary action in view",
		Changes: []ElementChange{
			{"button.add-to-cart", compAddToCart, ChangeLayout, "position", "static", "sticky", "Pin the button while scrolling"},
		},
		ExpectedImpact: "Higher add to cart rate",
	},
	{
		IdentityState: identity.StateCautious,
		Flag:          FlagTrustSignals,
		Priority:      90,
		Summary:       "Answer risk questions up front",
		Changes: []ElementChange{
			{".trust-badges", compTrust, ChangeVisibility, "display", "none", "flex", "Show returns and secure payment badges near the price"},
			{".returns-policy", compTrust, ChangeContent, "text", "", "Free 30 day returns", "State the returns policy next to the button"},
		},
		ExpectedImpact: "Higher add to cart rate among hesitant shoppers",
	},
	{
		IdentityState: identity.StateCautious,
		Flag:          FlagShowHelp,
		Priority:      70,
		Summary:       "Make questions easy to ask",
		Changes: []ElementChange{
			{"#help-widget", compHelp, ChangeVisibility, "display", "none", "block", "Show the help launcher on product pages"},
		},
		ExpectedImpact: "Fewer exits from product pages",
	},
	{
		IdentityState: identity.StateCautious,
		Flag:          densityFlags[DensityDetailed],
		Priority:      60,
		Summary:       "Surface full specifications",
		Changes: []ElementChange{
			{".product-details .specs", compDetails, ChangeVisibility, "collapsed", "true", "false", "Cautious shoppers read the details"},
		},
		ExpectedImpact: "More confident purchase decisions",
	},
	{
		IdentityState: identity.StateExploratory,
		Flag:          FlagDiscoveryFeed,
		Priority:      80,
		Summary:       "Feed exploration with related products",
		Changes: []ElementChange{
			{".recommendations-feed", compFeed, ChangeVisibility, "display", "none", "grid", "Show a related products rail"},
			{".recommendations-feed", compFeed, ChangeAttribute, "strategy", "bestsellers", "similar_viewed", "Base suggestions on what was viewed"},
		},
		ExpectedImpact: "More product views per session",
	},
}
