package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"traffic-share-client/internal/common/errors"
)

const (
	MaxSubjectLength  = 200
	MaxMessageLength  = 2000
	MaxUsernameLength = 32
	MaxPromoLength    = 64
)

var (
	// Telegram username: letters, digits, underscores, 5-32 chars
	telegramUsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{5,32}$`)
	// BEP20 shares the EVM address format
	bep20AddressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

// WithdrawLimits bounds a single withdraw request in USD
type WithdrawLimits struct {
	MinUSD float64
	MaxUSD float64
}

// ValidateWithdrawAmount checks amount against limits. Values are compared as
// decimals without rounding, so 1.389 is below a 1.39 minimum.
func ValidateWithdrawAmount(amount float64, limits WithdrawLimits) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return errors.NewValidationError("amount_usd", "enter a valid amount")
	}

	value := decimal.NewFromFloat(amount)
	if value.LessThan(decimal.NewFromFloat(limits.MinUSD)) {
		return errors.NewValidationError("amount_usd",
			fmt.Sprintf("minimum withdraw amount is $%.2f", limits.MinUSD)).
			WithDetail("min_usd", limits.MinUSD)
	}
	if limits.MaxUSD > 0 && value.GreaterThan(decimal.NewFromFloat(limits.MaxUSD)) {
		return errors.NewValidationError("amount_usd",
			fmt.Sprintf("maximum withdraw amount is $%.2f", limits.MaxUSD)).
			WithDetail("max_usd", limits.MaxUSD)
	}
	return nil
}

// ValidateBEP20Address checks a USDT BEP20 wallet address
func ValidateBEP20Address(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return errors.NewValidationError("wallet_address", "wallet address cannot be empty")
	}
	if !bep20AddressRegex.MatchString(address) {
		return errors.NewValidationError("wallet_address", "wallet address must be a 0x-prefixed BEP20 address")
	}
	return nil
}

// ValidateSupportRequest checks subject and message of a support ticket
func ValidateSupportRequest(subject, message string) error {
	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)

	if subject == "" {
		return errors.NewValidationError("subject", "subject cannot be empty")
	}
	if len(subject) > MaxSubjectLength {
		return errors.NewValidationError("subject", fmt.Sprintf("subject cannot exceed %d characters", MaxSubjectLength))
	}
	if message == "" {
		return errors.NewValidationError("message", "message cannot be empty")
	}
	if len(message) > MaxMessageLength {
		return errors.NewValidationError("message", fmt.Sprintf("message cannot exceed %d characters", MaxMessageLength))
	}
	return nil
}

// ValidateTelegramAuth checks presence of the signed widget fields. The
// signature itself is verified by the backend.
func ValidateTelegramAuth(id int64, authDate int64, hash string) error {
	if id <= 0 {
		return errors.NewValidationError("id", "telegram id is required")
	}
	if authDate <= 0 {
		return errors.NewValidationError("auth_date", "auth_date is required")
	}
	if strings.TrimSpace(hash) == "" {
		return errors.NewValidationError("hash", "hash is required")
	}
	return nil
}

// ValidateUsername checks a Telegram username. Empty is allowed, Telegram
// accounts may have none.
func ValidateUsername(username string) error {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil
	}
	if len(username) > MaxUsernameLength {
		return errors.NewValidationError("username", fmt.Sprintf("username cannot exceed %d characters", MaxUsernameLength))
	}
	if !telegramUsernameRegex.MatchString(username) {
		return errors.NewValidationError("username", "username must contain only letters, numbers, and underscores, 5-32 characters")
	}
	return nil
}

// ValidatePromoCode checks a promo code before activation
func ValidatePromoCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.NewValidationError("code", "promo code cannot be empty")
	}
	if len(code) > MaxPromoLength {
		return errors.NewValidationError("code", fmt.Sprintf("promo code cannot exceed %d characters", MaxPromoLength))
	}
	return nil
}
