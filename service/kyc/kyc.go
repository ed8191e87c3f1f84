// Package kyc looks up account holder identity: the basic record, consent requests and the
// consent protected detailed record.
package kyc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/antinvestor/momo-api/config"
	"github.com/antinvestor/momo-api/service/coreapi"
	"github.com/antinvestor/momo-api/service/models"
	"github.com/antinvestor/momo-api/service/utility"
)

const (
	DefaultScope           = "all_info"
	DefaultConsentValidity = 3600

	accessTypeOffline = "offline"
	unknownGender     = "U"
	defaultLanguage   = "en"
)

// Service is bound to cfg.KYCProduct, disbursement unless configured otherwise. Lookups,
// consent requests and consent tokens all use that product's key and endpoints.
type Service struct {
	api     *coreapi.API
	product coreapi.Product
	phone   *regexp.Regexp
}

func New(cfg config.MomoConfig, tokens coreapi.TokenProvider, opts ...coreapi.Option) *Service {
	product := coreapi.Product(cfg.KYCProduct)
	if product == "" {
		product = coreapi.ProductDisbursement
	}
	return &Service{
		api:     coreapi.NewAPI(cfg, tokens, product, opts...),
		product: product,
		phone:   utility.MSISDNPattern(cfg.CountryCode),
	}
}

func (s *Service) path(format string, args ...any) string {
	return fmt.Sprintf("/%s"+format, append([]any{s.product}, args...)...)
}

// BasicInfo reads the account holder record of phone. No consent is needed.
func (s *Service) BasicInfo(ctx context.Context, phone string) (*models.BasicInfo, error) {
	const op = "basic user info"

	if err := coreapi.CheckPhone(op, phone, s.phone); err != nil {
		return nil, err
	}
	var info models.BasicUserInfo
	if err := s.api.Fetch(ctx, op, s.path("/v1_0/accountholder/msisdn/%s/basicuserinfo", phone), &info); err != nil {
		return nil, err
	}

	return &models.BasicInfo{
		FullName:  joinName(info.GivenName, info.FamilyName),
		BirthDate: info.Birthdate,
		Gender:    gender(info.Gender),
		Language:  language(info.Locale),
	}, nil
}

// RequestConsent starts an out-of-band consent request to the holder of phone. The returned
// grant id is exchanged by DetailedInfo once the holder approves.
func (s *Service) RequestConsent(ctx context.Context, phone, scopes string, validFor int) (*models.ConsentGrant, error) {
	const op = "request consent"

	if err := coreapi.CheckPhone(op, phone, s.phone); err != nil {
		return nil, err
	}
	if strings.TrimSpace(scopes) == "" {
		scopes = DefaultScope
	}
	if validFor <= 0 {
		validFor = DefaultConsentValidity
	}

	resp, err := s.api.Send(ctx, coreapi.Request{
		Op:     op,
		Method: http.MethodPost,
		Path:   s.path("/v1_0/bc-authorize"),
		Form: models.ConsentRequest{
			LoginHint:      fmt.Sprintf("ID:%s/MSISDN", phone),
			Scope:          scopes,
			AccessType:     accessTypeOffline,
			ConsentValidIn: validFor,
		},
	})
	if err != nil {
		return nil, coreapi.RemapProvider(err, coreapi.ErrValidation, "invalid data scope requested", "invalid_scope")
	}

	var grant models.ConsentGrant
	if err = coreapi.Decode(op, resp, &grant); err != nil {
		return nil, err
	}
	if grant.AuthReqID == "" {
		return nil, &coreapi.Error{Op: op, Kind: coreapi.ErrConnection, StatusCode: resp.StatusCode,
			Message: "provider returned no auth_req_id", Body: string(resp.Body)}
	}

	s.api.Logger().WithField("op", op).WithField("authReqId", grant.AuthReqID).Info("consent requested")
	return &grant, nil
}

// DetailedInfo exchanges an approved consent for an oauth token and reads the full holder
// record with it.
func (s *Service) DetailedInfo(ctx context.Context, authReqID string) (*models.DetailedInfo, error) {
	const op = "detailed user info"

	token, err := s.api.ConsentToken(ctx, op, authReqID)
	if err != nil {
		return nil, err
	}

	resp, err := s.api.SendWithToken(ctx, coreapi.Request{Op: op, Method: http.MethodGet, Path: s.path("/oauth2/v1_0/userinfo")}, token)
	if err != nil {
		if errors.Is(err, coreapi.ErrAuth) {
			return nil, coreapi.Reclassify(err, coreapi.ErrAuth, "consent expired or revoked")
		}
		return nil, err
	}

	var info models.UserInfo
	if err = coreapi.Decode(op, resp, &info); err != nil {
		return nil, err
	}
	info.SetRaw(resp.Body)
	return detailed(info), nil
}

// ValidateIdentity compares fullName, and birthDate when given, with the holder record of
// phone. Names match case insensitively.
func (s *Service) ValidateIdentity(ctx context.Context, phone, fullName, birthDate string) (bool, error) {
	info, err := s.BasicInfo(ctx, phone)
	if err != nil {
		return false, fmt.Errorf("identity verification failed: %w", err)
	}

	if !strings.EqualFold(info.FullName, strings.TrimSpace(fullName)) {
		return false, nil
	}
	if birthDate != "" && info.BirthDate != strings.TrimSpace(birthDate) {
		return false, nil
	}
	return true, nil
}

func detailed(info models.UserInfo) *models.DetailedInfo {
	fullName := strings.TrimSpace(info.Name)
	if fullName == "" {
		fullName = joinName(info.GivenName, info.MiddleName, info.FamilyName)
	}
	return &models.DetailedInfo{
		Subject:             info.Sub,
		FullName:            fullName,
		BirthDate:           info.Birthdate,
		Gender:              gender(info.Gender),
		Language:            language(info.Locale),
		NationalID:          info.NationalID,
		Address: models.Address{
			Street:  info.StreetAddress,
			City:    info.Locality,
			Country: info.Country,
		},
		Email:               info.Email,
		EmailVerified:       info.EmailVerified,
		PhoneNumber:         info.PhoneNumber,
		PhoneNumberVerified: info.PhoneNumberVerified,
		Financials:          financials(info),
		Status:              info.Status,
		Active:              info.Active,
		CreditScore:         info.CreditScore,
		CountryOfBirth:      info.CountryOfBirth,
		RegionOfBirth:       info.RegionOfBirth,
		CityOfBirth:         info.CityOfBirth,
		Occupation:          info.Occupation,
		EmployerName:        info.EmployerName,
		IdentificationType:  info.IdentificationType,
		IdentificationValue: info.IdentificationValue,
		Raw:                 info.Raw,
	}
}

func financials(info models.UserInfo) models.Financials {
	f := models.Financials{Currency: strings.TrimSpace(info.AccountCurrency)}
	if info.AccountBalance.Valid {
		f.Balance = info.AccountBalance.Decimal.StringFixed(2)
	}
	return f
}

func joinName(parts ...string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func gender(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return unknownGender
	}
	return value
}

func language(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return defaultLanguage
	}
	return locale
}
