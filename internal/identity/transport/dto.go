package transport

import "time"

type ConsultantResponse struct {
	ID             string  `json:"id"`
	FullName       string  `json:"fullName"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone,omitempty"`
	Role           string  `json:"role"`
	CommissionRate string  `json:"commissionRate"`
}

type ListConsultantsResponse struct {
	Consultants []ConsultantResponse `json:"consultants"`
}

type UpdateCommissionRateRequest struct {
	CommissionRate string `json:"commissionRate" validate:"required,max=16"`
}

type RegisterClientRequest struct {
	FullName      string  `json:"fullName" validate:"required,min=2,max=160"`
	Email         string  `json:"email" validate:"required,email,max=254"`
	Phone         *string `json:"phone" validate:"omitempty,phone_br"`
	AffiliateCode *string `json:"affiliateCode" validate:"omitempty,max=64"`
}

type ClientResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
