package domain

import "errors"

// ErrorCode is the stable machine-readable code of a business failure.
type ErrorCode string

const (
	CodeInvalidAmount       ErrorCode = "InvalidAmount"
	CodeSameWallet          ErrorCode = "SameWallet"
	CodeFromWalletNotFound  ErrorCode = "FromWalletNotFound"
	CodeToWalletNotFound    ErrorCode = "ToWalletNotFound"
	CodeInvalidCurrency     ErrorCode = "InvalidCurrency"
	CodeInsufficientFunds   ErrorCode = "InsufficientFunds"
	CodeWalletNotFound      ErrorCode = "WalletNotFound"
	CodeInvalidUserID       ErrorCode = "InvalidUserId"
	CodeInvalidWalletName   ErrorCode = "InvalidWalletName"
	CodeInvalidDescription  ErrorCode = "InvalidDescription"
	CodeUserNotFound        ErrorCode = "UserNotFound"
	CodeEmailAlreadyExists  ErrorCode = "EmailAlreadyExists"
	CodeInvalidCredentials  ErrorCode = "InvalidCredentials"
	CodeTransactionNotFound ErrorCode = "TransactionNotFound"
)

// Error is a business rule failure. Operations return it; they never panic with it.
type Error struct {
	Code        ErrorCode
	Description string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Description
}

// Is matches on code, so a copy of a sentinel compares equal to it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code ErrorCode, description string) *Error {
	return &Error{Code: code, Description: description}
}

// Wallet and transfer errors
var (
	ErrInvalidAmount       = newError(CodeInvalidAmount, "Amount must be greater than zero")
	ErrSameWallet          = newError(CodeSameWallet, "Cannot transfer to the same wallet")
	ErrFromWalletNotFound  = newError(CodeFromWalletNotFound, "Source wallet not found")
	ErrToWalletNotFound    = newError(CodeToWalletNotFound, "Destination wallet not found")
	ErrInvalidCurrency     = newError(CodeInvalidCurrency, "Invalid currency for the wallet")
	ErrInsufficientFunds   = newError(CodeInsufficientFunds, "Insufficient funds in the wallet")
	ErrWalletNotFound      = newError(CodeWalletNotFound, "Wallet not found")
	ErrInvalidWalletName   = newError(CodeInvalidWalletName, "Wallet name cannot be null, empty, or longer than 200 characters")
	ErrInvalidDescription  = newError(CodeInvalidDescription, "Description cannot be longer than 500 characters")
	ErrTransactionNotFound = newError(CodeTransactionNotFound, "Transaction not found")
)

// User errors
var (
	ErrInvalidUserID      = newError(CodeInvalidUserID, "User ID cannot be empty")
	ErrUserNotFound       = newError(CodeUserNotFound, "User not found")
	ErrEmailAlreadyExists = newError(CodeEmailAlreadyExists, "Email already exists")
	ErrInvalidCredentials = newError(CodeInvalidCredentials, "Invalid login or password")
)

// Value object and infrastructure errors. These are not business codes.
var (
	ErrNegativeAmount   = errors.New("money amount cannot be negative")
	ErrCurrencyMismatch = errors.New("cannot operate on money with different currencies")
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrPersistence      = errors.New("persistence failure")
	ErrConcurrentUpdate = errors.New("wallet was modified concurrently")
)

// AsBusinessError returns the business failure carried by err, if any.
func AsBusinessError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsBusinessError reports whether err is one of the closed set of business failures.
func IsBusinessError(err error) bool {
	_, ok := AsBusinessError(err)
	return ok
}
