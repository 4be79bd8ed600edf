package domain

type ShippingMode string

const (
	ShippingModeTerrestrial ShippingMode = "TERRESTRIAL"
	ShippingModeAir         ShippingMode = "AIR"
)

type RequestStatus string

const (
	RequestOpen          RequestStatus = "OPEN"
	RequestInNegotiation RequestStatus = "IN_NEGOTIATION"
	RequestAccepted      RequestStatus = "ACCEPTED"
	RequestInTransit     RequestStatus = "IN_TRANSIT"
	RequestDelivered     RequestStatus = "DELIVERED"
	RequestCancelled     RequestStatus = "CANCELLED"
)

type OfferStatus string

const (
	OfferActive  OfferStatus = "ACTIVE"
	OfferPaused  OfferStatus = "PAUSED"
	OfferExpired OfferStatus = "EXPIRED"
)

type ContractStatus string

const (
	ContractProposed  ContractStatus = "PROPOSED"
	ContractAccepted  ContractStatus = "ACCEPTED"
	ContractPickedUp  ContractStatus = "PICKED_UP"
	ContractDelivered ContractStatus = "DELIVERED"
	ContractCancelled ContractStatus = "CANCELLED"
)

// Page is the envelope of the backend's paginated list endpoints.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// PartySummary is the trimmed user embedded in marketplace listings.
type PartySummary struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	RatingSum   int    `json:"rating_sum"`
	RatingCount int    `json:"rating_count"`
	Role        Role   `json:"role,omitempty"`
}

type ShipmentRequest struct {
	ID                 string        `json:"id"`
	UserID             string        `json:"user_id"`
	OriginCountry      string        `json:"origin_country"`
	OriginCity         string        `json:"origin_city"`
	DestinationCountry string        `json:"destination_country"`
	DestinationCity    string        `json:"destination_city"`
	Weight             float64       `json:"weight"`
	PackageType        string        `json:"package_type"`
	Mode               ShippingMode  `json:"mode"`
	Deadline           string        `json:"deadline"`
	Description        string        `json:"description"`
	Status             RequestStatus `json:"status"`
	User               *PartySummary `json:"user,omitempty"`
}

type Offer struct {
	ID                 string        `json:"id"`
	UserID             string        `json:"user_id"`
	OriginCountry      string        `json:"origin_country"`
	OriginCity         string        `json:"origin_city"`
	DestinationCountry string        `json:"destination_country"`
	DestinationCity    string        `json:"destination_city"`
	DepartureDate      string        `json:"departure_date"`
	ArrivalDate        string        `json:"arrival_date"`
	CapacityKg         float64       `json:"capacity_kg"`
	Mode               ShippingMode  `json:"mode"`
	PricePerKg         float64       `json:"price_per_kg"`
	Conditions         string        `json:"conditions,omitempty"`
	Status             OfferStatus   `json:"status"`
	User               *PartySummary `json:"user,omitempty"`
}

type ContractEvent struct {
	Status    ContractStatus `json:"status"`
	Timestamp string         `json:"timestamp"`
}

type Contract struct {
	ID            string           `json:"id"`
	RequestID     string           `json:"request_id"`
	OfferID       string           `json:"offer_id,omitempty"`
	ShipperID     string           `json:"shipper_id"`
	CarrierID     string           `json:"carrier_id"`
	ProposedPrice float64          `json:"proposed_price"`
	Status        ContractStatus   `json:"status"`
	Timeline      []ContractEvent  `json:"timeline"`
	CreatedAt     string           `json:"created_at"`
	Request       *ShipmentRequest `json:"request,omitempty"`
	Shipper       *PartySummary    `json:"shipper,omitempty"`
	Carrier       *PartySummary    `json:"carrier,omitempty"`
}

type Conversation struct {
	ID            string        `json:"id"`
	Participants  []string      `json:"participants"`
	RequestID     string        `json:"request_id,omitempty"`
	OfferID       string        `json:"offer_id,omitempty"`
	LastMessage   string        `json:"last_message,omitempty"`
	LastMessageAt string        `json:"last_message_at,omitempty"`
	OtherUser     *PartySummary `json:"other_user,omitempty"`
}
