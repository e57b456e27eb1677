// Package events defines the product lifecycle events published to the message broker.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/gostore/pkg/messaging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// StreamSubjects matches every product subject.
	StreamSubjects = "products.>"

	ProductCreatedSubject = "products.created"
	ProductUpdatedSubject = "products.updated"
	ProductDeletedSubject = "products.deleted"
)

var (
	_ messaging.Event = ProductCreatedEvent{}
	_ messaging.Event = ProductUpdatedEvent{}
	_ messaging.Event = ProductDeletedEvent{}
)

// ProductSnapshot is the product state carried by created and updated events.
type ProductSnapshot struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Status    bool            `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ProductCreatedEvent struct {
	Carrier map[string]string `json:"carrier,omitempty"`
	Product ProductSnapshot   `json:"product"`
}

func (e ProductCreatedEvent) Subject() string {
	return ProductCreatedSubject
}

func (e ProductCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductUpdatedEvent struct {
	Carrier map[string]string `json:"carrier,omitempty"`
	Product ProductSnapshot   `json:"product"`
}

func (e ProductUpdatedEvent) Subject() string {
	return ProductUpdatedSubject
}

func (e ProductUpdatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductDeletedEvent struct {
	Carrier   map[string]string `json:"carrier,omitempty"`
	ProductID uuid.UUID         `json:"product_id"`
	DeletedAt time.Time         `json:"deleted_at"`
}

func (e ProductDeletedEvent) Subject() string {
	return ProductDeletedSubject
}

func (e ProductDeletedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
