package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/PCS-BookingService/pkg/ptr"
)

func TestBookee_Validate(t *testing.T) {
	assert.NoError(t, RegisteredBookee(1).Validate())
	assert.NoError(t, LeadBookee(1).Validate())

	tests := []struct {
		name   string
		bookee Bookee
	}{
		{"empty", Bookee{}},
		{"customer kind without id", Bookee{Kind: BookeeCustomer}},
		{"lead kind without id", Bookee{Kind: BookeeLead}},
		{"customer kind with both ids", Bookee{Kind: BookeeCustomer, CustomerID: ptr.Ptr(int64(1)), LeadID: ptr.Ptr(int64(2))}},
		{"lead kind with both ids", Bookee{Kind: BookeeLead, CustomerID: ptr.Ptr(int64(1)), LeadID: ptr.Ptr(int64(2))}},
		{"unknown kind", Bookee{Kind: "company", CustomerID: ptr.Ptr(int64(1))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.bookee.Validate(), ErrInvalidBookee)
		})
	}
}
