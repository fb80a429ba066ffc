// Package services содержит адаптеры хэширования паролей и подписи токенов.
package services

import (
	"estatehub/internal/auth/ports/services"
)

// ServiceFactory собирает сервисы аутентификации из настроек.
type ServiceFactory struct {
	passwordService services.PasswordService
	tokenService    services.TokenService
}

// NewServiceFactory создает фабрику сервисов.
func NewServiceFactory(jwtCfg JWTConfig, bcryptCost int, opts ...JWTOption) *ServiceFactory {
	return &ServiceFactory{
		passwordService: NewBcrypt(bcryptCost),
		tokenService:    NewJWT(jwtCfg, opts...),
	}
}

// PasswordService возвращает сервис паролей.
func (f *ServiceFactory) PasswordService() services.PasswordService {
	return f.passwordService
}

// TokenService возвращает сервис токенов.
func (f *ServiceFactory) TokenService() services.TokenService {
	return f.tokenService
}
