package jwttoken

import (
	"brokerage/internal/platform/middleware"
)

// Adapter bridges the token service to the middleware's validator interface.
type Adapter struct {
	service *Service
}

func NewAdapter(service *Service) *Adapter {
	return &Adapter{service: service}
}

func (a *Adapter) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.TokenClaims{UserID: claims.UserID, Role: claims.Role}, nil
}
