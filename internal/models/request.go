// internal/models/request.go
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a reorder request or an order.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCompleted RequestStatus = "completed"
)

var ErrUnknownStatus = errors.New("unknown status")

func ParseStatus(s string) (RequestStatus, error) {
	switch st := RequestStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// RequestKind separates the two request ledgers.
type RequestKind string

const (
	KindReorder RequestKind = "reorder_request"
	KindOrder   RequestKind = "order"
)

// transitions lists every permitted move per kind. Anything absent is refused.
var transitions = map[RequestKind]map[RequestStatus][]RequestStatus{
	KindReorder: {
		StatusPending: {StatusApproved, StatusRejected},
	},
	KindOrder: {
		StatusPending:  {StatusApproved, StatusRejected},
		StatusApproved: {StatusCompleted},
	},
}

// CanTransition reports whether from -> to is a legal move for the kind.
func (k RequestKind) CanTransition(from, to RequestStatus) bool {
	for _, next := range transitions[k][from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTarget reports whether status can ever be reached by a transition.
func (k RequestKind) IsTarget(status RequestStatus) bool {
	for _, nexts := range transitions[k] {
		for _, next := range nexts {
			if next == status {
				return true
			}
		}
	}
	return false
}

// ReorderRequest is a retailer's ask for more of a single medicine.
type ReorderRequest struct {
	ID              string        `bson:"_id" json:"id"`
	Reference       string        `bson:"reference" json:"reference"`
	Number          int64         `bson:"number" json:"requestNumber"`
	RetailerUserID  string        `bson:"retailerUserId" json:"retailerUserId"`
	RetailerPartyID string        `bson:"retailerPartyId" json:"retailerPartyId"`
	MedicineID      string        `bson:"medicineId" json:"medicineId"`
	Quantity        int64         `bson:"quantity" json:"quantity"`
	Status          RequestStatus `bson:"status" json:"status"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt" json:"updatedAt"`
	DecidedAt       *time.Time    `bson:"decidedAt,omitempty" json:"decidedAt,omitempty"`
}

type OrderItem struct {
	MedicineID string `bson:"medicineId" json:"medicineId"`
	Quantity   int64  `bson:"quantity" json:"quantity"`
}

// Order is a multi-line ask addressed to one wholesaler.
type Order struct {
	ID                string        `bson:"_id" json:"id"`
	Reference         string        `bson:"reference" json:"reference"`
	Number            int64         `bson:"number" json:"requestNumber"`
	RetailerUserID    string        `bson:"retailerUserId" json:"retailerUserId"`
	RetailerPartyID   string        `bson:"retailerPartyId" json:"retailerPartyId"`
	WholesalerPartyID string        `bson:"wholesalerPartyId" json:"wholesalerId"`
	Items             []OrderItem   `bson:"items" json:"items"`
	TotalAmount       int64         `bson:"totalAmount" json:"totalAmount"`
	Status            RequestStatus `bson:"status" json:"status"`
	CreatedAt         time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time     `bson:"updatedAt" json:"updatedAt"`
	DecidedAt         *time.Time    `bson:"decidedAt,omitempty" json:"decidedAt,omitempty"`
	CompletedAt       *time.Time    `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// TotalQuantity sums the line quantities.
func (o Order) TotalQuantity() int64 {
	var n int64
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
