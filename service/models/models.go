package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	PartyIDTypeMSISDN = "MSISDN"

	StatusPending    = "PENDING"
	StatusSuccessful = "SUCCESSFUL"
	StatusFailed     = "FAILED"
)

// Party identifies a payer or payee.
type Party struct {
	PartyIDType string `json:"partyIdType"`
	PartyID     string `json:"partyId"`
}

func MSISDN(phone string) Party {
	return Party{PartyIDType: PartyIDTypeMSISDN, PartyID: phone}
}

// RequestToPay is the body of a collection request to pay.
type RequestToPay struct {
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	ExternalID   string `json:"externalId"`
	Payer        Party  `json:"payer"`
	PayerMessage string `json:"payerMessage"`
	PayeeNote    string `json:"payeeNote"`
}

// RequestToWithdraw is the body of a collection withdrawal (cash out) request.
type RequestToWithdraw struct {
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	ExternalID   string `json:"externalId"`
	Payer        Party  `json:"payer"`
	PayerMessage string `json:"payerMessage"`
	PayeeNote    string `json:"payeeNote"`
}

// Transfer is the body of disbursement transfer and deposit requests.
type Transfer struct {
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	ExternalID   string `json:"externalId"`
	Payee        Party  `json:"payee"`
	PayerMessage string `json:"payerMessage"`
	PayeeNote    string `json:"payeeNote"`
}

type Refund struct {
	Amount              string `json:"amount"`
	Currency            string `json:"currency"`
	ExternalID          string `json:"externalId"`
	PayerMessage        string `json:"payerMessage"`
	PayeeNote           string `json:"payeeNote"`
	ReferenceIDToRefund string `json:"referenceIdToRefund"`
}

type Invoice struct {
	ExternalID       string `json:"externalId"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	ValidityDuration string `json:"validityDuration"`
	IntendedPayer    Party  `json:"intendedPayer"`
	Payee            Party  `json:"payee"`
	Description      string `json:"description"`
}

type InvoiceStatus struct {
	ReferenceID      string         `json:"referenceId"`
	ExternalID       string         `json:"externalId"`
	Amount           string         `json:"amount"`
	Currency         string         `json:"currency"`
	Status           string         `json:"status"`
	PaymentReference string         `json:"paymentReference"`
	InvoiceID        string         `json:"invoiceId"`
	ExpiryDateTime   string         `json:"expiryDateTime"`
	PayeeFirstName   string         `json:"payeeFirstName"`
	PayeeLastName    string         `json:"payeeLastName"`
	ErrorReason      datatypes.JSON `json:"errorReason,omitempty"`
	IntendedPayer    Party          `json:"intendedPayer"`
	Description      string         `json:"description"`
	Raw              datatypes.JSON `json:"-"`
}

type DeleteInvoice struct {
	ExternalID string `json:"externalId"`
}

type DeliveryNotification struct {
	NotificationMessage string `json:"notificationMessage"`
}

// TransactionStatus is the provider's record of a payment, withdrawal, transfer, deposit or
// refund. Reason and Raw keep the provider's JSON untouched.
type TransactionStatus struct {
	Amount                 string         `json:"amount"`
	Currency               string         `json:"currency"`
	FinancialTransactionID string         `json:"financialTransactionId"`
	ExternalID             string         `json:"externalId"`
	Payer                  *Party         `json:"payer,omitempty"`
	Payee                  *Party         `json:"payee,omitempty"`
	PayerMessage           string         `json:"payerMessage"`
	PayeeNote              string         `json:"payeeNote"`
	Status                 string         `json:"status"`
	Reason                 datatypes.JSON `json:"reason,omitempty"`
	Raw                    datatypes.JSON `json:"-"`
}

// IsTerminal reports whether the provider has settled the transaction either way.
func (s *TransactionStatus) IsTerminal() bool {
	return s.Status != "" && !strings.EqualFold(s.Status, StatusPending)
}

func (s *TransactionStatus) IsSuccessful() bool {
	return strings.EqualFold(s.Status, StatusSuccessful)
}

// SetRaw keeps the undecoded provider body on the record.
func (s *TransactionStatus) SetRaw(body []byte) {
	s.Raw = datatypes.JSON(body)
}

func (s *InvoiceStatus) SetRaw(body []byte) {
	s.Raw = datatypes.JSON(body)
}

type Balance struct {
	AvailableBalance string `json:"availableBalance"`
	Currency         string `json:"currency"`
}

type AccountHolderActive struct {
	Result bool `json:"result"`
}

// APIUser is the body of an api user creation request.
type APIUser struct {
	ProviderCallbackHost string `json:"providerCallbackHost"`
}

type APIUserInfo struct {
	ProviderCallbackHost string `json:"providerCallbackHost"`
	TargetEnvironment    string `json:"targetEnvironment"`
}

type APIKey struct {
	APIKey string `json:"apiKey"`
}

// AccessToken is the token endpoint response for both product and oauth tokens.
type AccessToken struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// CIBAGrant is the form body exchanging a consent for an oauth token.
type CIBAGrant struct {
	GrantType string `form:"grant_type"`
	AuthReqID string `form:"auth_req_id"`
}

// ConsentRequest is the form body of a bc-authorize call.
type ConsentRequest struct {
	LoginHint      string `form:"login_hint"`
	Scope          string `form:"scope"`
	AccessType     string `form:"access_type"`
	ConsentValidIn int    `form:"consent_valid_in,omitempty"`
}

// ConsentGrant is an out-of-band consent waiting for end user approval.
type ConsentGrant struct {
	AuthReqID string `json:"auth_req_id"`
	Interval  int    `json:"interval"`
	ExpiresIn int    `json:"expires_in"`
}

// BasicUserInfo is the provider's basic account holder record.
type BasicUserInfo struct {
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Birthdate  string `json:"birthdate"`
	Locale     string `json:"locale"`
	Gender     string `json:"gender"`
	Status     string `json:"status"`
}

type BasicInfo struct {
	FullName  string `json:"fullName"`
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender"`
	Language  string `json:"language"`
}

// UserInfo is the consent protected account holder record.
type UserInfo struct {
	Sub                 string              `json:"sub"`
	Name                string              `json:"name"`
	GivenName           string              `json:"given_name"`
	FamilyName          string              `json:"family_name"`
	MiddleName          string              `json:"middle_name"`
	Email               string              `json:"email"`
	EmailVerified       bool                `json:"email_verified"`
	Gender              string              `json:"gender"`
	Locale              string              `json:"locale"`
	PhoneNumber         string              `json:"phone_number"`
	PhoneNumberVerified bool                `json:"phone_number_verified"`
	NationalID          string              `json:"national_id"`
	StreetAddress       string              `json:"street_address"`
	Locality            string              `json:"locality"`
	Country             string              `json:"country"`
	AccountBalance      decimal.NullDecimal `json:"account_balance"`
	AccountCurrency     string              `json:"account_currency"`
	UpdatedAt           int64               `json:"updated_at"`
	Status              string              `json:"status"`
	Birthdate           string              `json:"birthdate"`
	CreditScore         string              `json:"credit_score"`
	Active              bool                `json:"active"`
	CountryOfBirth      string              `json:"country_of_birth"`
	RegionOfBirth       string              `json:"region_of_birth"`
	CityOfBirth         string              `json:"city_of_birth"`
	Occupation          string              `json:"occupation"`
	EmployerName        string              `json:"employer_name"`
	IdentificationType  string              `json:"identification_type"`
	IdentificationValue string              `json:"identification_value"`
	Raw                 datatypes.JSON      `json:"-"`
}

// SetRaw keeps the undecoded provider body on the record.
func (u *UserInfo) SetRaw(body []byte) {
	u.Raw = datatypes.JSON(body)
}

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// Financials is the account position shared under consent. Balance is empty when the
// provider withholds it.
type Financials struct {
	Balance  string `json:"balance,omitempty"`
	Currency string `json:"currency,omitempty"`
}

type DetailedInfo struct {
	Subject             string         `json:"subject"`
	FullName            string         `json:"fullName"`
	BirthDate           string         `json:"birthDate"`
	Gender              string         `json:"gender"`
	Language            string         `json:"language"`
	NationalID          string         `json:"nationalId"`
	Address             Address        `json:"address"`
	Email               string         `json:"email"`
	EmailVerified       bool           `json:"emailVerified"`
	PhoneNumber         string         `json:"phoneNumber"`
	PhoneNumberVerified bool           `json:"phoneNumberVerified"`
	Financials          Financials     `json:"financials"`
	Status              string         `json:"status"`
	Active              bool           `json:"active"`
	CreditScore         string         `json:"creditScore"`
	CountryOfBirth      string         `json:"countryOfBirth"`
	RegionOfBirth       string         `json:"regionOfBirth"`
	CityOfBirth         string         `json:"cityOfBirth"`
	Occupation          string         `json:"occupation"`
	EmployerName        string         `json:"employerName"`
	IdentificationType  string         `json:"identificationType"`
	IdentificationValue string         `json:"identificationValue"`
	Raw                 datatypes.JSON `json:"-"`
}

// ErrorResponse covers both the api error body and the oauth error body.
type ErrorResponse struct {
	Code             string `json:"code"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
