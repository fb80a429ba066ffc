package app

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"estatehub/internal/auth/domain/entities"
	"estatehub/internal/auth/domain/services"
)

const (
	fieldEmail    = "email"
	fieldPassword = "password"
	fieldRole     = "role"
	fieldName     = "name"
	fieldPhone    = "phone"

	maxEmailLength = 254
	maxNameLength  = 100
	maxPhoneLength = 32

	reasonRequired      = "is required"
	reasonInvalidEmail  = "must be a valid email address"
	reasonTooShort      = "must contain at least 8 characters"
	reasonTooLong       = "is too long"
	reasonRoleForbidden = "must be one of USER, AGENT"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// registration - проверенные и нормализованные данные регистрации.
type registration struct {
	email    string
	password string
	name     string
	phone    string
	role     entities.Role
}

func validateRegistration(in services.RegisterInput) (*registration, error) {
	email := entities.NormalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, services.NewValidationError(fieldName, reasonTooLong)
	}
	phone := strings.TrimSpace(in.Phone)
	if len(phone) > maxPhoneLength {
		return nil, services.NewValidationError(fieldPhone, reasonTooLong)
	}

	role, err := entities.ParseRole(in.Role)
	if err != nil || !role.SelfService() {
		return nil, services.NewValidationError(fieldRole, reasonRoleForbidden)
	}

	return &registration{email: email, password: in.Password, name: name, phone: phone, role: role}, nil
}

func validateEmail(email string) error {
	switch {
	case email == "":
		return services.NewValidationError(fieldEmail, reasonRequired)
	case len(email) > maxEmailLength:
		return services.NewValidationError(fieldEmail, reasonTooLong)
	case !emailRegex.MatchString(email):
		return services.NewValidationError(fieldEmail, reasonInvalidEmail)
	}
	return nil
}

func validatePassword(password string) error {
	switch {
	case password == "":
		return services.NewValidationError(fieldPassword, reasonRequired)
	case utf8.RuneCountInString(password) < services.MinPasswordLength:
		return services.NewValidationError(fieldPassword, reasonTooShort)
	case len(password) > services.MaxPasswordBytes:
		return services.NewValidationError(fieldPassword, reasonTooLong)
	}
	return nil
}

func validateCredentials(email, password string) error {
	if email == "" {
		return services.NewValidationError(fieldEmail, reasonRequired)
	}
	if password == "" {
		return services.NewValidationError(fieldPassword, reasonRequired)
	}
	return nil
}
