package application

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/waselni/waselni-cli/internal/domain"
)

const maxPageSize = 100

type PageOptions struct {
	Page  int
	Limit int
}

func (o PageOptions) apply(values url.Values) {
	if o.Page > 0 {
		values.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		limit := o.Limit
		if limit > maxPageSize {
			limit = maxPageSize
		}
		values.Set("limit", strconv.Itoa(limit))
	}
}

type RequestFilter struct {
	OriginCountry      string
	DestinationCountry string
	Mode               domain.ShippingMode
	Status             domain.RequestStatus
	PageOptions
}

type OfferFilter struct {
	OriginCountry      string
	DestinationCountry string
	Mode               domain.ShippingMode
	Status             domain.OfferStatus
	PageOptions
}

// Marketplace reads shipment requests, offers, contracts and conversations
// through an authenticated session.
type Marketplace struct {
	session *Session
}

func NewMarketplace(session *Session) *Marketplace {
	return &Marketplace{session: session}
}

func (m *Marketplace) ListRequests(ctx context.Context, filter RequestFilter) (domain.Page[domain.ShipmentRequest], error) {
	query := url.Values{}
	setIfPresent(query, "origin_country", filter.OriginCountry)
	setIfPresent(query, "destination_country", filter.DestinationCountry)
	setIfPresent(query, "mode", string(filter.Mode))
	setIfPresent(query, "status", string(filter.Status))
	filter.PageOptions.apply(query)

	return Fetch[domain.Page[domain.ShipmentRequest]](ctx, m.session, Request{Method: http.MethodGet, Path: "/requests", Query: query})
}

func (m *Marketplace) ListMyRequests(ctx context.Context, opts PageOptions) (domain.Page[domain.ShipmentRequest], error) {
	query := url.Values{}
	opts.apply(query)

	return Fetch[domain.Page[domain.ShipmentRequest]](ctx, m.session, Request{Method: http.MethodGet, Path: "/requests/mine", Query: query})
}

func (m *Marketplace) ListOffers(ctx context.Context, filter OfferFilter) (domain.Page[domain.Offer], error) {
	query := url.Values{}
	setIfPresent(query, "origin_country", filter.OriginCountry)
	setIfPresent(query, "destination_country", filter.DestinationCountry)
	setIfPresent(query, "mode", string(filter.Mode))
	setIfPresent(query, "status", string(filter.Status))
	filter.PageOptions.apply(query)

	return Fetch[domain.Page[domain.Offer]](ctx, m.session, Request{Method: http.MethodGet, Path: "/offers", Query: query})
}

func (m *Marketplace) ListMyOffers(ctx context.Context, opts PageOptions) (domain.Page[domain.Offer], error) {
	query := url.Values{}
	opts.apply(query)

	return Fetch[domain.Page[domain.Offer]](ctx, m.session, Request{Method: http.MethodGet, Path: "/offers/mine", Query: query})
}

// ListContracts returns the caller's contracts, optionally only those in status.
func (m *Marketplace) ListContracts(ctx context.Context, status domain.ContractStatus) ([]domain.Contract, error) {
	query := url.Values{}
	setIfPresent(query, "status", string(status))

	return Fetch[[]domain.Contract](ctx, m.session, Request{Method: http.MethodGet, Path: "/contracts", Query: query})
}

func (m *Marketplace) GetContract(ctx context.Context, id string) (domain.Contract, error) {
	if id == "" {
		return domain.Contract{}, errors.New("contract id is required")
	}

	return Fetch[domain.Contract](ctx, m.session, Request{Method: http.MethodGet, Path: "/contracts/" + url.PathEscape(id)})
}

func (m *Marketplace) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	return Fetch[[]domain.Conversation](ctx, m.session, Request{Method: http.MethodGet, Path: "/conversations"})
}

func setIfPresent(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}
