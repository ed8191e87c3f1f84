// Package main is the operator command line for the mobile money client.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/antinvestor/momo-api/service/kyc"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		logrus.WithError(err).Error("momo command failed")
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "momo",
		Usage: "Drive the mobile money collection, disbursement and KYC apis",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "metrics", Usage: "Print provider call metrics to stderr when the command ends"},
		},
		Commands: []*cli.Command{
			provisionCommand(),
			payCommand(),
			cashOutCommand(),
			statusCommand(),
			notifyCommand(),
			transferCommand(),
			depositCommand(),
			refundCommand(),
			balanceCommand(),
			accountHolderCommand(),
			invoiceCommand(),
			kycCommand(),
		},
	}
}

type action func(ctx context.Context, cmd *cli.Command, a *app) error

func withApp(run action) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		a, err := newApp(cmd.Root().Writer)
		if err != nil {
			return err
		}
		err = run(ctx, cmd, a)
		if cmd.Root().Bool("metrics") {
			if dumpErr := a.dumpMetrics(cmd.Root().ErrWriter); dumpErr != nil {
				a.logger.WithError(dumpErr).Warn("could not write metrics")
			}
		}
		return err
	}
}

func phoneFlag() cli.Flag {
	return &cli.StringFlag{Name: "phone", Aliases: []string{"p"}, Required: true, Usage: "MSISDN with country code, e.g. 260771234567"}
}

func amountFlag() cli.Flag {
	return &cli.StringFlag{Name: "amount", Aliases: []string{"a"}, Required: true, Usage: "Amount, e.g. 25 or 10.50"}
}

func referenceFlag(usage string) cli.Flag {
	return &cli.StringFlag{Name: "reference", Aliases: []string{"r"}, Required: true, Usage: usage}
}

func waitFlag() cli.Flag {
	return &cli.BoolFlag{Name: "wait", Aliases: []string{"w"}, Usage: "Poll until the transaction settles"}
}

func provisionCommand() *cli.Command {
	return &cli.Command{
		Name:  "provision",
		Usage: "Create a sandbox api user and key",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subscription-key", Aliases: []string{"k"}, Usage: "Subscription key to provision with, defaults to the collection key"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			if !a.cfg.IsSandbox() {
				return fmt.Errorf("api users can only be provisioned in sandbox, target environment is %q", a.cfg.TargetEnvironment)
			}
			key := cmd.String("subscription-key")
			if key == "" {
				key = a.cfg.CollectionSubscriptionKey
			}

			userID, err := a.tokens.CreateAPIUser(ctx, key)
			if err != nil {
				return err
			}
			apiKey, err := a.tokens.CreateAPIKey(ctx, key)
			if err != nil {
				return err
			}
			return a.print(map[string]string{"MOMO_API_USER": userID, "MOMO_API_KEY": apiKey})
		}),
	}
}

func payCommand() *cli.Command {
	return &cli.Command{
		Name:  "pay",
		Usage: "Request a payment from an account holder",
		Flags: []cli.Flag{
			phoneFlag(),
			amountFlag(),
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Message shown to the payer"},
			&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "Note kept for the payee"},
			waitFlag(),
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			service := a.collections()
			reference, err := service.RequestPayment(ctx, cmd.String("phone"), cmd.String("amount"), cmd.String("message"), cmd.String("note"))
			if err != nil {
				return err
			}
			if !cmd.Bool("wait") {
				return a.print(map[string]string{"reference": reference})
			}
			st, err := service.WaitForPayment(ctx, reference)
			if err != nil {
				return err
			}
			return a.print(map[string]any{"reference": reference, "status": st})
		}),
	}
}

func cashOutCommand() *cli.Command {
	return &cli.Command{
		Name:  "cash-out",
		Usage: "Request a withdrawal from an account holder",
		Flags: []cli.Flag{
			phoneFlag(),
			amountFlag(),
			&cli.StringFlag{Name: "reason", Usage: "Reason shown to the account holder"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			reference, err := a.collections().RequestCashOut(ctx, cmd.String("phone"), cmd.String("amount"), cmd.String("reason"))
			if err != nil {
				return err
			}
			return a.print(map[string]string{"reference": reference})
		}),
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Check the status of a transaction",
		Flags: []cli.Flag{
			referenceFlag("Reference id returned when the transaction was created"),
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: "payment", Usage: "payment, cash-out, transfer, deposit or refund"},
			waitFlag(),
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			reference := cmd.String("reference")
			wait := cmd.Bool("wait")

			var lookup func(context.Context, string) (any, error)
			switch kind := cmd.String("kind"); kind {
			case "payment":
				lookup = statusOf(a.collections().PaymentStatus)
				if wait {
					lookup = statusOf(a.collections().WaitForPayment)
				}
			case "cash-out":
				lookup = statusOf(a.collections().CashOutStatus)
			case "transfer":
				lookup = statusOf(a.disbursements().TransferStatus)
				if wait {
					lookup = statusOf(a.disbursements().WaitForTransfer)
				}
			case "deposit":
				lookup = statusOf(a.disbursements().DepositStatus)
			case "refund":
				lookup = statusOf(a.disbursements().RefundStatus)
			default:
				return fmt.Errorf("unknown transaction kind %q", kind)
			}

			st, err := lookup(ctx, reference)
			if err != nil {
				return err
			}
			return a.print(st)
		}),
	}
}

func statusOf[T any](fn func(context.Context, string) (T, error)) func(context.Context, string) (any, error) {
	return func(ctx context.Context, reference string) (any, error) {
		return fn(ctx, reference)
	}
}

func notifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "notify",
		Usage: "Send a delivery notification for a payment",
		Flags: []cli.Flag{
			referenceFlag("Reference id of the payment"),
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Notification text"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			delivered, err := a.collections().SendPaymentNotification(ctx, cmd.String("reference"), cmd.String("message"))
			if err != nil {
				return err
			}
			return a.print(map[string]bool{"delivered": delivered})
		}),
	}
}

func transferCommand() *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Transfer money to an account holder",
		Flags: []cli.Flag{
			phoneFlag(),
			amountFlag(),
			&cli.StringFlag{Name: "name", Required: true, Usage: "Recipient name as registered with the provider"},
			&cli.StringFlag{Name: "currency", Usage: "ISO 4217 currency, defaults to MOMO_CURRENCY"},
			waitFlag(),
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			service := a.disbursements()
			reference, err := service.Transfer(ctx, cmd.String("phone"), cmd.String("amount"), cmd.String("name"), cmd.String("currency"))
			if err != nil {
				return err
			}
			if !cmd.Bool("wait") {
				return a.print(map[string]string{"reference": reference})
			}
			st, err := service.WaitForTransfer(ctx, reference)
			if err != nil {
				return err
			}
			return a.print(map[string]any{"reference": reference, "status": st})
		}),
	}
}

func depositCommand() *cli.Command {
	return &cli.Command{
		Name:  "deposit",
		Usage: "Deposit money into an account holder's wallet",
		Flags: []cli.Flag{
			phoneFlag(),
			amountFlag(),
			&cli.StringFlag{Name: "name", Required: true, Usage: "Recipient name as registered with the provider"},
			&cli.StringFlag{Name: "currency", Usage: "ISO 4217 currency, defaults to MOMO_CURRENCY"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			reference, err := a.disbursements().Deposit(ctx, cmd.String("phone"), cmd.String("amount"), cmd.String("name"), cmd.String("currency"))
			if err != nil {
				return err
			}
			return a.print(map[string]string{"reference": reference})
		}),
	}
}

func refundCommand() *cli.Command {
	return &cli.Command{
		Name:  "refund",
		Usage: "Refund an earlier payment",
		Flags: []cli.Flag{
			referenceFlag("Reference id of the payment to refund"),
			amountFlag(),
			&cli.StringFlag{Name: "reason", Usage: "Reason shown to the account holder"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			reference, err := a.disbursements().Refund(ctx, cmd.String("reference"), cmd.String("amount"), cmd.String("reason"))
			if err != nil {
				return err
			}
			return a.print(map[string]string{"reference": reference})
		}),
	}
}

func balanceCommand() *cli.Command {
	return &cli.Command{
		Name:  "balance",
		Usage: "Show the account balance of a product",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "product", Value: "collection", Usage: "collection or disbursement"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			var lookup func(context.Context) (any, error)
			switch product := cmd.String("product"); product {
			case "collection":
				lookup = func(ctx context.Context) (any, error) { return a.collections().Balance(ctx) }
			case "disbursement":
				lookup = func(ctx context.Context) (any, error) { return a.disbursements().Balance(ctx) }
			default:
				return fmt.Errorf("unknown product %q", product)
			}
			balance, err := lookup(ctx)
			if err != nil {
				return err
			}
			return a.print(balance)
		}),
	}
}

func accountHolderCommand() *cli.Command {
	return &cli.Command{
		Name:  "account-active",
		Usage: "Check whether a number belongs to an active account holder",
		Flags: []cli.Flag{phoneFlag()},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
			active, err := a.collections().AccountHolderActive(ctx, cmd.String("phone"))
			if err != nil {
				return err
			}
			return a.print(map[string]bool{"active": active})
		}),
	}
}

func invoiceCommand() *cli.Command {
	invoiceFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "id", Required: true, Usage: "Invoice id"}
	}
	return &cli.Command{
		Name:  "invoice",
		Usage: "Manage invoices",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Bill a payer",
				Flags: []cli.Flag{
					amountFlag(),
					&cli.StringFlag{Name: "payer", Required: true, Usage: "Payer MSISDN"},
					&cli.StringFlag{Name: "payee", Required: true, Usage: "Payee MSISDN"},
					&cli.StringFlag{Name: "description", Usage: "Invoice description"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
					invoiceID, err := a.invoices().Create(ctx, cmd.String("amount"), cmd.String("payer"), cmd.String("payee"), cmd.String("description"))
					if err != nil {
						return err
					}
					return a.print(map[string]string{"invoiceId": invoiceID})
				}),
			},
			{
				Name:  "status",
				Usage: "Show an invoice",
				Flags: []cli.Flag{invoiceFlag()},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
					st, err := a.invoices().Status(ctx, cmd.String("id"))
					if err != nil {
						return err
					}
					return a.print(st)
				}),
			},
			{
				Name:  "delete",
				Usage: "Cancel an invoice",
				Flags: []cli.Flag{invoiceFlag()},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
					deleted, err := a.invoices().Delete(ctx, cmd.String("id"))
					if err != nil {
						return err
					}
					return a.print(map[string]bool{"deleted": deleted})
				}),
			},
		},
	}
}

func kycCommand() *cli.Command {
	return &cli.Command{
		Name:  "kyc",
		Usage: "Look up account holder identity",
		Commands: []*cli.Command{
			{
				Name:  "basic",
				Usage: "Show the basic account holder record",
				Flags: []cli.Flag{phoneFlag()},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
					info, err := a.kyc().BasicInfo(ctx, cmd.String("phone"))
					if err != nil {
						return err
					}
					return a.print(info)
				}),
			},
			{
				Name:  "consent",
				Usage: "Ask the account holder to consent to sharing their record",
				Flags: []cli.Flag{
					phoneFlag(),
					&cli.StringFlag{Name: "scope", Value: kyc.DefaultScope, Usage: "Requested scopes"},
					&cli.IntFlag{Name: "valid-for", Value: kyc.DefaultConsentValidity, Usage: "Consent validity in seconds"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
					grant, err := a.kyc().RequestConsent(ctx, cmd.String("phone"), cmd.String("scope"), int(cmd.Int("valid-for")))
					if err != nil {
						return err
					}
					return a.print(grant)
				}),
			},
			{
				Name:  "detailed",
				Usage: "Show the consent protected account holder record",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "auth-req-id", Required: true, Usage: "auth_req_id returned by the consent command"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
					info, err := a.kyc().DetailedInfo(ctx, cmd.String("auth-req-id"))
					if err != nil {
						return err
					}
					return a.print(info)
				}),
			},
			{
				Name:  "verify",
				Usage: "Compare a name and birth date with the account holder record",
				Flags: []cli.Flag{
					phoneFlag(),
					&cli.StringFlag{Name: "name", Required: true, Usage: "Full name to compare"},
					&cli.StringFlag{Name: "birth-date", Usage: "Birth date to compare, YYYY-MM-DD"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app) error {
					ok, err := a.kyc().ValidateIdentity(ctx, cmd.String("phone"), cmd.String("name"), cmd.String("birth-date"))
					if err != nil {
						return err
					}
					return a.print(map[string]bool{"verified": ok})
				}),
			},
		},
	}
}
