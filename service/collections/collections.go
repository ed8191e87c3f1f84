// Package collections requests money from account holders: request to pay, request to
// withdraw, their status, delivery notifications, invoices and the collection balance.
package collections

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/antinvestor/momo-api/config"
	"github.com/antinvestor/momo-api/service/coreapi"
	"github.com/antinvestor/momo-api/service/models"
	"github.com/antinvestor/momo-api/service/utility"
	"github.com/google/uuid"
)

const (
	requestToPayPath      = "/collection/v1_0/requesttopay"
	requestToWithdrawPath = "/collection/v1_0/requesttowithdraw"
	balancePath           = "/collection/v1_0/account/balance"
	accountHolderPath     = "/collection/v1_0/accountholder/msisdn/"

	messageLimit      = 20
	notificationLimit = 100

	defaultPayerMessage        = "Payment request"
	defaultPayeeNote           = "Transaction completed"
	defaultCashOutReason       = "Cash withdrawal"
	defaultCashOutNote         = "Cash withdrawal processed"
	defaultNotificationMessage = "Payment received successfully"
)

type Service struct {
	api   *coreapi.API
	cfg   config.MomoConfig
	phone *regexp.Regexp
}

// New binds a collection service to tokens, which it never owns.
func New(cfg config.MomoConfig, tokens coreapi.TokenProvider, opts ...coreapi.Option) *Service {
	return &Service{
		api:   coreapi.NewAPI(cfg, tokens, coreapi.ProductCollection, opts...),
		cfg:   cfg,
		phone: utility.MSISDNPattern(cfg.CountryCode),
	}
}

// RequestPayment asks the payer to approve a debit of amount. Empty messages get defaults and
// both are cut to twenty characters. The returned reference id is the key for PaymentStatus.
func (s *Service) RequestPayment(ctx context.Context, phone string, amount any, payerMessage, payeeNote string) (string, error) {
	const op = "request to pay"

	if err := coreapi.CheckPhone(op, phone, s.phone); err != nil {
		return "", err
	}
	value, err := coreapi.CheckAmount(op, amount)
	if err != nil {
		return "", err
	}

	body := models.RequestToPay{
		Amount:       value,
		Currency:     s.cfg.Currency,
		ExternalID:   uuid.NewString(),
		Payer:        models.MSISDN(phone),
		PayerMessage: utility.Truncate(orDefault(payerMessage, defaultPayerMessage), messageLimit),
		PayeeNote:    utility.Truncate(orDefault(payeeNote, defaultPayeeNote), messageLimit),
	}

	reference, err := s.api.Submit(ctx, op, requestToPayPath, body)
	if err != nil {
		return "", s.currencyError(err)
	}
	return reference, nil
}

// RequestCashOut asks the payer to approve a withdrawal from their account.
func (s *Service) RequestCashOut(ctx context.Context, phone string, amount any, reason string) (string, error) {
	const op = "request to withdraw"

	if err := coreapi.CheckPhone(op, phone, s.phone); err != nil {
		return "", err
	}
	value, err := coreapi.CheckAmount(op, amount)
	if err != nil {
		return "", err
	}

	body := models.RequestToWithdraw{
		Amount:       value,
		Currency:     s.cfg.Currency,
		ExternalID:   uuid.NewString(),
		Payer:        models.MSISDN(phone),
		PayerMessage: utility.Truncate(orDefault(reason, defaultCashOutReason), messageLimit),
		PayeeNote:    utility.Truncate(defaultCashOutNote, messageLimit),
	}

	reference, err := s.api.Submit(ctx, op, requestToWithdrawPath, body)
	if err != nil {
		return "", s.currencyError(err)
	}
	return reference, nil
}

// PaymentStatus waits the settle delay once, then reads the request to pay.
func (s *Service) PaymentStatus(ctx context.Context, reference string) (*models.TransactionStatus, error) {
	return s.api.Status(ctx, "payment status", requestToPayPath, reference)
}

func (s *Service) CashOutStatus(ctx context.Context, reference string) (*models.TransactionStatus, error) {
	return s.api.Status(ctx, "cash out status", requestToWithdrawPath, reference)
}

// WaitForPayment polls the request to pay until the payer approves or rejects it.
func (s *Service) WaitForPayment(ctx context.Context, reference string) (*models.TransactionStatus, error) {
	return s.api.Wait(ctx, "wait for payment", requestToPayPath, reference)
}

// SendPaymentNotification asks the provider to notify the payer about reference. The
// reference is passed through unchecked; the result reports whether the provider answered 200.
func (s *Service) SendPaymentNotification(ctx context.Context, reference, message string) (bool, error) {
	const op = "delivery notification"

	message = utility.Truncate(orDefault(message, defaultNotificationMessage), notificationLimit)
	resp, err := s.api.Send(ctx, coreapi.Request{
		Op:     op,
		Method: http.MethodPost,
		Path:   requestToPayPath + "/" + reference + "/deliverynotification",
		Header: map[string]string{"notificationMessage": message},
		JSON:   models.DeliveryNotification{NotificationMessage: message},
	})
	if err != nil {
		if errors.Is(err, coreapi.ErrAuth) || coreapi.StatusCodeOf(err) == 0 {
			return false, err
		}
		s.api.Logger().WithError(err).WithField("reference", reference).Info("delivery notification not acknowledged")
		return false, nil
	}
	return resp.StatusCode == http.StatusOK, nil
}

func (s *Service) Balance(ctx context.Context) (*models.Balance, error) {
	var balance models.Balance
	if err := s.api.Fetch(ctx, "collection balance", balancePath, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// AccountHolderActive reports whether phone belongs to an active account holder.
func (s *Service) AccountHolderActive(ctx context.Context, phone string) (bool, error) {
	const op = "account holder active"

	if err := coreapi.CheckPhone(op, phone, s.phone); err != nil {
		return false, err
	}
	var result models.AccountHolderActive
	if err := s.api.Fetch(ctx, op, accountHolderPath+phone+"/active", &result); err != nil {
		return false, err
	}
	return result.Result, nil
}

// currencyError explains the sandbox currency restriction when the provider rejects the
// currency of a request.
func (s *Service) currencyError(err error) error {
	if !s.cfg.IsSandbox() {
		return err
	}
	return coreapi.RemapCurrency(err)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
